//go:build tinygo

package transmitter

func countSymbols(string, int) {}
