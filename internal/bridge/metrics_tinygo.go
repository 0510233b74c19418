//go:build tinygo

package bridge

import "time"

func countFrame() {}

func countFault(Phase) {}

func observePhase(Phase, time.Duration) {}
