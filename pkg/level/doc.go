// Package level loads puzzle definitions from YAML.
//
// A level describes the board, the starting pose of the agent, the palette
// offered to the player and, optionally, starting programs:
//
//	name: corridor
//	briefing: |
//	  # Corridor
//	  Reach the coin at the end of the corridor.
//	grid:
//	  width: 1
//	  height: 3
//	  blocked: []
//	  marks:
//	    coin: [{x: 0, y: 0}]
//	agent: {x: 0, y: 2, facing: up}
//	conditions: [if_coin, if_free]
//	programs:
//	  main: [move-forward, "move-forward[if_free]"]
//
// Instruction tokens use the canonical kind names, with an optional condition
// predicate in brackets.
package level
