// Command pulsecore-sim runs the motion core against built-in synthetic
// blocks on a simulated clock and prints a one-line summary per run: a
// REPL (flag parsing + bufio.Scanner command loop) driving
// motion.StepTicker directly instead of a real MCU link. Block
// construction itself is out of scope (motion planning is a non-goal):
// the scenarios in scenarios.go hand-build Block values the way a unit
// test would.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"pulsecore/config"
	"pulsecore/eventbus"
	"pulsecore/gcodeio"
	"pulsecore/hal"
	"pulsecore/hostbridge/serial"
	"pulsecore/logging"
)

var (
	serialDevice = flag.String("serial", "", "mirror pin events to this serial device (optional)")
	verbose      = flag.Bool("verbose", false, "enable debug-level logging")
)

func main() {
	flag.Parse()

	logOpts := logging.DefaultOptions()
	if *verbose {
		logOpts.Level = logging.DebugLevel
	}
	log := logging.New(logOpts)
	defer log.Sync()

	bus := eventbus.New()
	cfg := config.NewDefault()
	cfg.SetBus(bus)

	var mirror serial.Port
	if *serialDevice != "" {
		port, err := serial.Open(serial.DefaultConfig(*serialDevice))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open serial device %s: %v\n", *serialDevice, err)
			os.Exit(1)
		}
		defer port.Close()
		mirror = port
	}

	sim := newSimulator(cfg, bus, log, mirror)

	fmt.Println("pulsecore-sim - motion core scenario runner")
	fmt.Println("============================================")
	fmt.Println("Type 'help' for available commands, 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		switch strings.ToLower(parts[0]) {
		case "quit", "exit", "q":
			fmt.Println("goodbye")
			return

		case "help", "?":
			printHelp()

		case "list":
			for _, name := range scenarioNames() {
				fmt.Println("  " + name)
			}

		case "run":
			if len(parts) < 2 {
				fmt.Println("usage: run <scenario>")
				continue
			}
			if err := sim.runScenario(parts[1]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}

		case "dict":
			fmt.Print(sim.registry.Dictionary())

		case "gcode":
			if len(parts) < 2 {
				fmt.Println("usage: gcode <line>")
				continue
			}
			rest := strings.Join(parts[1:], " ")
			cmd, err := gcodeio.ParseLine(rest)
			if err != nil {
				fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
				continue
			}
			if sim.enableHandler.Handle(cmd) {
				sim.logEnableChange()
				fmt.Printf("handled: enabled=%v\n", sim.stepper.EnablePinsStatus())
			} else {
				fmt.Println("not an enable/disable command")
			}

		default:
			fmt.Printf("unknown command: %s (type 'help')\n", parts[0])
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println()
	fmt.Println("  help             show this message")
	fmt.Println("  list             list available scenarios")
	fmt.Println("  run <scenario>   run a scenario to completion and print a summary")
	fmt.Println("  gcode <line>     feed a line through the M17/M18/M84 handler")
	fmt.Println("  dict             print the registered wire-command dictionary")
	fmt.Println("  quit             exit")
	fmt.Println()
}

func fmtSteps(pins []*hal.SimPin) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = strconv.Itoa(p.StepCount)
	}
	return strings.Join(parts, ",")
}
