package mazecode_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/mazecode"
	"github.com/aretw0/mazecode/pkg/domain"
)

// ExampleSession_RunToCompletion builds a program in code and runs it headless.
func ExampleSession_RunToCompletion() {
	s := mazecode.New(
		mazecode.WithGrid(domain.NewGrid(3, 3)),
		mazecode.WithAgent(*domain.NewAgent(0, 0, domain.FacingRight)),
	)

	for _, kind := range []domain.Kind{domain.KindMoveForward, domain.KindCallSubprogram1} {
		if _, err := s.AddInstruction(domain.ProgramMain, kind, -1); err != nil {
			log.Fatal(err)
		}
	}
	for _, kind := range []domain.Kind{domain.KindTurnRight, domain.KindMoveForward} {
		if _, err := s.AddInstruction(domain.ProgramSub1, kind, -1); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println(s.Stringify())

	res, err := s.RunToCompletion(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Status, res.Agent.Position, res.Agent.Facing)

	// Output:
	// main: 0:move-forward 1:call-subprogram-1
	// subprogram-1: 0:turn-right 1:move-forward
	// subprogram-2:
	// completed (1,1) down
}
