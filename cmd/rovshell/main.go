package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/open-teleop/rovcontrol/pkg/config"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
)

func main() {
	vehiclePath := flag.String("vehicle", "", "vehicle config file; firmware defaults when empty")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	vehicle := config.DefaultVehicleConfig()
	if *vehiclePath != "" {
		var err error
		vehicle, err = config.LoadVehicleConfig(*vehiclePath)
		if err != nil {
			log.Fatalf("Unable to load vehicle config: %v", err)
		}
	}

	bench, err := newBench(vehicle, customlog.NewWriterLogger(*level, os.Stderr))
	if err != nil {
		log.Fatalf("Unable to build pipeline: %v", err)
	}

	shell := ishell.New()
	shell.Println("ROV thrust controller development shell")
	shell.ShowPrompt(true)
	for _, cmd := range bench.commands() {
		shell.AddCmd(cmd)
	}

	// Non-interactive use: rovshell -- mix 1023 0 0 0 0
	if args := flag.Args(); len(args) > 0 {
		if err := shell.Process(args...); err != nil {
			log.Fatalf("%s: %v", strings.Join(args, " "), err)
		}
		return
	}
	shell.Run()
}
