/*
Package mazecode is the core of a block-programming puzzle game.

A player assembles a small program from draggable instruction blocks
(move-forward, move-back, turn-left, turn-right, call-subprogram-1,
call-subprogram-2 and condition tests) and runs it step by step to drive an
agent across a grid.

# Concept

The Session is the explicit context of one play session. It owns the program
workspace, the editing state machine, the execution engine and the scheduler
driving it, the "active drag" slot and the reference to the presentation layer
that receives feedback cues. Rendering, audio and input stay outside and are
reached through the interfaces in pkg/ports.

# Key Features

  - Well-formed programs: ordered sequences, at most one condition per
    instruction, a main program and two subprograms.
  - Gesture state machine: taps, drags, trash, insertion previews and palette
    respawn never leave a program inconsistent.
  - Deterministic execution: every suspension is a timer on a virtual clock,
    so runs can be replayed and tested without real time.
  - Bounded subprogram nesting with a defined failure outcome.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/mazecode"
		"github.com/aretw0/mazecode/pkg/domain"
	)

	func main() {
		s := mazecode.New(
			mazecode.WithGrid(domain.NewGrid(3, 3)),
			mazecode.WithAgent(*domain.NewAgent(0, 0, domain.FacingRight)),
		)

		if _, err := s.AddInstruction(domain.ProgramMain, domain.KindMoveForward, -1); err != nil {
			log.Fatal(err)
		}

		res, err := s.RunToCompletion(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Status, res.Agent.Position)
	}
*/
package mazecode
