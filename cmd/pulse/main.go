// Command pulse tails a log file and dispatches its events to the
// general-stats and traffic-gauge reference schedules.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"fmt"
	"os"
)

func main() {
	manager := NewManager()
	if err := manager.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
