package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agbru/omegacalc/internal/config"
	"github.com/agbru/omegacalc/internal/logging"
	"github.com/agbru/omegacalc/internal/precision"
	"github.com/agbru/omegacalc/internal/service"
	"github.com/agbru/omegacalc/internal/solver"
	"github.com/agbru/omegacalc/internal/tail"
	"github.com/agbru/omegacalc/pkg/models"
)

// The reference roots are solved with guard extra digits and rounded back,
// so that they do not share the rounding of a run at the target precision.
func main() {
	outputDir := flag.String("out", "internal/service/testdata", "Output directory for the golden file")
	digits := flag.Int("digits", precision.DefaultDigits, "Significant digits of the reference roots")
	guard := flag.Int("guard", 20, "Extra digits used while solving")
	orders := config.OrderList{10, 20, 40}
	flag.Var(&orders, "orders", "Truncation orders")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	svc, err := newService(*digits + *guard)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building solver: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generating golden data...")
	var data []models.GoldenRoot
	for i, order := range orders {
		d, err := svc.Diagnose(context.Background(), nil, i, order)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error solving order %d: %v\n", order, err)
			os.Exit(1)
		}
		data = append(data, models.GoldenRoot{
			Order:  order,
			Digits: *digits,
			Root:   service.RoundedText(d.Root, *digits-1),
		})
		fmt.Printf("Solved order %d in %d iterations\n", order, d.Iterations)
	}

	filename := filepath.Join(*outputDir, "golden_roots.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

func newService(digits int) (*service.DiagnosticService, error) {
	pc, err := precision.New(digits)
	if err != nil {
		return nil, err
	}
	s, err := solver.New(pc, solver.Options{})
	if err != nil {
		return nil, err
	}
	return service.NewDiagnosticService(pc, s, tail.NewDefaultRegistry(), config.MaxOrder, logging.NewNopLogger()), nil
}
