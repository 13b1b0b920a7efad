package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for mazecode.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Gradient from teal to amber, one color per row
	s1 := termenv.String("  _ __ ___   __ _ _______  ___ ___   __| | ___").Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String(" | '_ ` _ \\ / _` |_  / _ \\/ __/ _ \\ / _` |/ _ \\").Foreground(p.Color("#4ade80"))
	s3 := termenv.String(" | | | | | | (_| |/ /  __/ (_| (_) | (_| |  __/").Foreground(p.Color("#a3e635"))
	s4 := termenv.String(" |_| |_| |_|\\__,_/___\\___|\\___\\___/ \\__,_|\\___|").Foreground(p.Color("#fbbf24"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println()
}
