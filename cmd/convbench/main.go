package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/emergingrobotics/go-hps-accel/pkg/cfu"
	"github.com/emergingrobotics/go-hps-accel/pkg/conv"
	"github.com/emergingrobotics/go-hps-accel/pkg/convcase"
	"github.com/emergingrobotics/go-hps-accel/pkg/harness"
	"github.com/emergingrobotics/go-hps-accel/pkg/sim"
)

// Version information (set by ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "run":
		if len(args) < 1 {
			fmt.Println("Usage: convbench run <case.ccf>...")
			os.Exit(1)
		}
		runCases(args)
	case "info":
		if len(args) < 1 {
			fmt.Println("Usage: convbench info <case.ccf>")
			os.Exit(1)
		}
		caseInfo(args[0])
	case "gen":
		if len(args) < 1 {
			fmt.Println("Usage: convbench gen <output.ccf> [seed]")
			os.Exit(1)
		}
		generateCase(args)
	case "version":
		printVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Conv2D accelerator test bench")
	fmt.Println()
	fmt.Println("Usage: convbench <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run <case.ccf>...    Run cases against the simulated accelerator")
	fmt.Println("  info <case.ccf>      Show case metadata")
	fmt.Println("  gen <output.ccf>     Generate a deterministic sample case")
	fmt.Println("  version              Print version information")
	fmt.Println("  help                 Show this help")
}

func printVersion() {
	fmt.Printf("convbench %s (built %s)\n", Version, BuildTime)
	fmt.Printf("Gateware generations: %s (%d filter words), %s (%d filter words)\n",
		cfu.Gen1.Name, cfu.Gen1.MaxFilterWords,
		cfu.Gen2.Name, cfu.Gen2.MaxFilterWords)
}

func runCases(paths []string) {
	gen := cfu.Gen1
	dev := sim.New(gen)
	failures := 0
	for _, path := range paths {
		c, err := convcase.Parse(path)
		if err != nil {
			fmt.Printf("Error: %s: %v\n", path, err)
			failures++
			continue
		}
		result, err := harness.Run(os.Stdout, dev, gen, c)
		if err != nil {
			fmt.Printf("Error: %s: %v\n", c.Name, err)
			failures++
			continue
		}
		if !result.Pass() {
			failures++
		}
	}
	if failures > 0 {
		fmt.Printf("%d of %d case(s) failed\n", failures, len(paths))
		os.Exit(1)
	}
	fmt.Printf("All %d case(s) passed\n", len(paths))
}

func caseInfo(path string) {
	c, err := convcase.Parse(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Case: %s\n", c.Name)
	fmt.Printf("  Input:   %dx%dx%dx%d\n", c.InputShape.Batches, c.InputShape.Height,
		c.InputShape.Width, c.InputShape.Channels)
	fmt.Printf("  Filter:  %dx%dx%dx%d\n", c.FilterShape.Batches, c.FilterShape.Height,
		c.FilterShape.Width, c.FilterShape.Channels)
	fmt.Printf("  Output:  %dx%dx%dx%d\n", c.OutputShape.Batches, c.OutputShape.Height,
		c.OutputShape.Width, c.OutputShape.Channels)
	fmt.Printf("  Padding: %s, stride %dx%d, dilation %dx%d\n",
		c.Params.Padding, c.Params.StrideHeight, c.Params.StrideWidth,
		c.Params.DilationHeight, c.Params.DilationWidth)
	fmt.Printf("  Offsets: input %d, output %d, clamp [%d, %d]\n",
		c.Params.InputOffset, c.Params.OutputOffset,
		c.Params.ActivationMin, c.Params.ActivationMax)
	fmt.Printf("  Bias:    present=%v\n", c.Bias != nil)

	eligible := conv.CanAccelerate(c.Params, c.InputShape, c.FilterShape, c.OutputShape, c.Bias)
	fmt.Printf("  Path:    ")
	if eligible {
		tiling, err := conv.PlanChannelTiling(cfu.Gen1, c.InputShape.Channels, c.OutputShape.Channels)
		if err != nil {
			fmt.Printf("accelerated (tiling error: %v)\n", err)
			return
		}
		fmt.Printf("accelerated, %d output channels per filter load\n",
			tiling.MaxOutputChannelsPerLoad)
	} else {
		fmt.Printf("reference fallback\n")
	}
}

func generateCase(args []string) {
	path := args[0]
	seed := int64(1)
	if len(args) > 1 {
		v, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Printf("Error: bad seed %q: %v\n", args[1], err)
			os.Exit(1)
		}
		seed = v
	}

	params := conv.Params{
		Padding:        conv.PaddingValid,
		StrideHeight:   1,
		StrideWidth:    1,
		DilationHeight: 1,
		DilationWidth:  1,
		InputOffset:    128,
		OutputOffset:   -3,
		ActivationMin:  -128,
		ActivationMax:  127,
	}
	inputShape := conv.Shape{Batches: 1, Height: 8, Width: 8, Channels: 4}
	filterShape := conv.Shape{Batches: 8, Height: 4, Width: 4, Channels: 4}

	c, err := convcase.Synthesize(fmt.Sprintf("sample_seed%d", seed),
		params, inputShape, filterShape, seed)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := convcase.WriteFile(path, c); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%s, output %dx%dx%dx%d)\n", path, c.Name,
		c.OutputShape.Batches, c.OutputShape.Height, c.OutputShape.Width,
		c.OutputShape.Channels)
}
