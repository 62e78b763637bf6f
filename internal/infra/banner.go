package infra

import (
	"fmt"
	"strings"
)

const (
	colorReset = "\033[0m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
)

// PrintBanner prints the startup banner. The color encodes the mode so
// a glance at the terminal tells paper from replay.
func PrintBanner(cfg *Config) {
	mode := strings.ToUpper(cfg.Trading.Mode)

	color := colorCyan
	modeDesc := "PAPER TRADING (NO REAL ORDERS)"
	if mode == "BACKTEST" {
		color = colorBlue
		modeDesc = "HISTORICAL REPLAY"
	}

	lines := []string{
		"",
		"            🤖 TradeBot Paper Engine",
		"",
		fmt.Sprintf("  MODE:    %s", mode),
		fmt.Sprintf("  TYPE:    %s", modeDesc),
		fmt.Sprintf("  VERSION: %s", cfg.App.Version),
		"",
	}

	const width = 58
	border := strings.Repeat("#", width)

	fmt.Println()
	fmt.Printf("%s%s%s\n", color, border, colorReset)
	for _, l := range lines {
		fmt.Printf("%s#%-*s#%s\n", color, width-2, l, colorReset)
	}
	fmt.Printf("%s%s%s\n", color, border, colorReset)
	fmt.Println()
}
