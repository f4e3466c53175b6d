// smartdrv-host queries driver telemetry from a running board and prints
// a colored report: alarms in red, warnings in yellow, healthy drivers in
// green.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"smartdrv/core"
	"smartdrv/host/link"
	"smartdrv/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "serial device path")
	drivers = flag.Int("drivers", 4, "number of drivers to query")
	watch   = flag.Bool("watch", false, "repeat the query once a second")
)

func main() {
	flag.Parse()

	l, err := link.Dial(*device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer l.Close()

	fmt.Printf("smartdrv-host %s on %s\n\n", protocol.Version, *device)

	for {
		for d := 0; d < *drivers; d++ {
			if err := report(l, d); err != nil {
				fmt.Fprintf(os.Stderr, "driver %d: %v\n", d, err)
			}
		}
		if !*watch {
			return
		}
		time.Sleep(time.Second)
		fmt.Println()
	}
}

func report(l *link.Link, driver int) error {
	// Drain the accumulator: keep nothing for the next reader.
	if err := l.Send("query_tmc_status", uint32(driver), 0); err != nil {
		return err
	}
	payload, err := l.WaitResponse("tmc_status", time.Second)
	if err != nil {
		return err
	}
	if _, err := protocol.DecodeVLQUint(&payload); err != nil { // oid
		return err
	}
	live, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return err
	}
	accumulated, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return err
	}

	printStatus(driver, live, accumulated)

	if err := l.Send("tmc_stall_report", uint32(driver)); err != nil {
		return err
	}
	stall, err := l.WaitResponse("tmc_stall_report_response", time.Second)
	if err != nil {
		return err
	}
	if _, err := protocol.DecodeVLQUint(&stall); err != nil { // oid
		return err
	}
	fmt.Printf("          %s\n", string(stall))
	return nil
}

func printStatus(driver int, live, accumulated uint32) {
	fmt.Printf("driver %d: ", driver)

	alarms := false
	flag := func(bit uint32, name string, paint func(format string, a ...interface{}) string) {
		if accumulated&bit != 0 {
			fmt.Print(paint("%s ", name))
			alarms = true
		}
	}

	flag(core.TMC_RR_OT, "temperature-shutdown", color.RedString)
	flag(core.TMC_RR_S2G, "short-to-ground", color.RedString)
	flag(core.TMC_RR_SG, "stall", color.RedString)
	flag(core.TMC_RR_OTPW, "temperature-warning", color.YellowString)
	flag(core.TMC_RR_OLA, "open-load-A", color.YellowString)
	flag(core.TMC_RR_OLB, "open-load-B", color.YellowString)

	if !alarms {
		fmt.Print(color.GreenString("ok"))
	}
	fmt.Println()

	sgLoad := (live >> core.TMC_RR_SG_LOAD_SHIFT) & 1023
	standstill := ""
	if live&core.TMC_RR_STST != 0 {
		standstill = " (standstill)"
	}
	fmt.Printf("          SG load %d%s\n", sgLoad, standstill)
}
