package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/bayopt/internal/bench"
	"github.com/cwbudde/bayopt/internal/gp"
	"github.com/cwbudde/bayopt/internal/policy"
	"github.com/cwbudde/bayopt/internal/store"
)

var (
	specPath  string
	benchName string
	dim       int
	iters     int
	kernel    string
	criterion string
	solver    string
	inference string
	noise     float64
	xi        float64
	beta      float64
	seed      int64
	restarts  int
	gridSize  int
	parallel  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot optimization",
	Long: `Runs Bayesian optimization against a benchmark objective and prints
the best point found. A YAML spec file can supply the configuration; flags
set on the command line take precedence over the file.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&specPath, "spec", "", "YAML run spec file")
	runCmd.Flags().StringVar(&benchName, "benchmark", "", "Benchmark objective (required unless --spec is given)")
	runCmd.Flags().IntVar(&dim, "dim", 2, "Search space dimensionality")
	runCmd.Flags().IntVar(&iters, "iters", 50, "Max iterations")
	runCmd.Flags().StringVar(&kernel, "kernel", "se", "GP kernel: se, matern3, matern5")
	runCmd.Flags().StringVar(&criterion, "criterion", "ei", "Acquisition criterion: ei, pi, ucb, thompson")
	runCmd.Flags().StringVar(&solver, "solver", "lbfgs", "Acquisition maximizer: lbfgs, mayfly")
	runCmd.Flags().StringVar(&inference, "inference", "fixed", "Hyperparameter inference: fixed, marginal")
	runCmd.Flags().Float64Var(&noise, "noise", 0, "Observation noise standard deviation (0 = default)")
	runCmd.Flags().Float64Var(&xi, "xi", 0, "Improvement margin for EI/PI")
	runCmd.Flags().Float64Var(&beta, "beta", 0, "Exploration weight for UCB (0 = default)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().IntVar(&restarts, "restarts", 0, "Local ascent restarts (0 = default)")
	runCmd.Flags().IntVar(&gridSize, "grid-size", 0, "Candidate grid size (0 = default)")
	runCmd.Flags().IntVar(&parallel, "parallel", 0, "Parallel restart workers (0 = sequential)")

	rootCmd.AddCommand(runCmd)
}

// runSpec mirrors store.RunConfig for YAML run files.
type runSpec struct {
	Benchmark string  `yaml:"benchmark"`
	Dim       int     `yaml:"dim"`
	Iters     int     `yaml:"iters"`
	Kernel    string  `yaml:"kernel"`
	Criterion string  `yaml:"criterion"`
	Solver    string  `yaml:"solver"`
	Inference string  `yaml:"inference"`
	Noise     float64 `yaml:"noise"`
	Xi        float64 `yaml:"xi"`
	Beta      float64 `yaml:"beta"`
	Seed      int64   `yaml:"seed"`
	Restarts  int     `yaml:"restarts"`
	GridSize  int     `yaml:"grid_size"`
	Parallel  int     `yaml:"parallel"`
}

// resolveRunConfig merges the YAML spec (if any) with command-line flags;
// flags that were explicitly set win.
func resolveRunConfig(cmd *cobra.Command) (store.RunConfig, error) {
	config := store.RunConfig{
		Benchmark: benchName,
		Dim:       dim,
		Iters:     iters,
		Kernel:    kernel,
		Criterion: criterion,
		Solver:    solver,
		Inference: inference,
		Noise:     noise,
		Xi:        xi,
		Beta:      beta,
		Seed:      seed,
		Restarts:  restarts,
		GridSize:  gridSize,
		Parallel:  parallel,
	}

	if specPath == "" {
		if config.Benchmark == "" {
			return config, fmt.Errorf("--benchmark is required (or pass --spec)")
		}
		return config, nil
	}

	data, err := os.ReadFile(specPath)
	if err != nil {
		return config, fmt.Errorf("failed to read spec file: %w", err)
	}
	var spec runSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return config, fmt.Errorf("failed to parse spec file: %w", err)
	}

	merged := store.RunConfig{
		Benchmark: spec.Benchmark,
		Dim:       spec.Dim,
		Iters:     spec.Iters,
		Kernel:    spec.Kernel,
		Criterion: spec.Criterion,
		Solver:    spec.Solver,
		Inference: spec.Inference,
		Noise:     spec.Noise,
		Xi:        spec.Xi,
		Beta:      spec.Beta,
		Seed:      spec.Seed,
		Restarts:  spec.Restarts,
		GridSize:  spec.GridSize,
		Parallel:  spec.Parallel,
	}

	override := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	override("benchmark", func() { merged.Benchmark = config.Benchmark })
	override("dim", func() { merged.Dim = config.Dim })
	override("iters", func() { merged.Iters = config.Iters })
	override("kernel", func() { merged.Kernel = config.Kernel })
	override("criterion", func() { merged.Criterion = config.Criterion })
	override("solver", func() { merged.Solver = config.Solver })
	override("inference", func() { merged.Inference = config.Inference })
	override("noise", func() { merged.Noise = config.Noise })
	override("xi", func() { merged.Xi = config.Xi })
	override("beta", func() { merged.Beta = config.Beta })
	override("seed", func() { merged.Seed = config.Seed })
	override("restarts", func() { merged.Restarts = config.Restarts })
	override("grid-size", func() { merged.GridSize = config.GridSize })
	override("parallel", func() { merged.Parallel = config.Parallel })

	if merged.Benchmark == "" {
		return merged, fmt.Errorf("spec file does not name a benchmark")
	}
	if merged.Dim == 0 {
		merged.Dim = 2
	}
	if merged.Iters == 0 {
		merged.Iters = 50
	}
	return merged, nil
}

// buildRunPolicy assembles the policy and benchmark for a run config.
func buildRunPolicy(config store.RunConfig) (*policy.Policy, bench.Benchmark, error) {
	bm, err := bench.Lookup(config.Benchmark, config.Dim)
	if err != nil {
		return nil, bench.Benchmark{}, err
	}

	mode, err := policy.ParseInference(config.Inference)
	if err != nil {
		return nil, bench.Benchmark{}, err
	}

	cfg := policy.Config{
		Domain:    bm.Domain,
		Noise:     config.Noise,
		Kernel:    config.Kernel,
		Solver:    config.Solver,
		Criterion: config.Criterion,
		Inference: mode,
		Xi:        config.Xi,
		Beta:      config.Beta,
		Seed:      config.Seed,
		Restarts:  config.Restarts,
		GridSize:  config.GridSize,
		Parallel:  config.Parallel,
	}
	if mode == policy.InferenceMarginal {
		prior := gp.DefaultPrior(bm.Domain)
		cfg.Prior = &prior
	}

	pol, err := policy.New(cfg)
	if err != nil {
		return nil, bench.Benchmark{}, err
	}
	return pol, bm, nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	config, err := resolveRunConfig(cmd)
	if err != nil {
		return err
	}

	slog.Info("Starting optimization",
		"benchmark", config.Benchmark,
		"dim", config.Dim,
		"iters", config.Iters,
		"criterion", config.Criterion,
		"solver", config.Solver,
	)

	pol, bm, err := buildRunPolicy(config)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := policy.Run(context.Background(), pol, bm.Objective(), config.Iters,
		policy.DefaultConvergenceConfig(), nil)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	recommended, err := pol.Recommend()
	if err != nil {
		return err
	}
	recommendedValue := bm.Eval(recommended)

	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"iterations", result.Iterations,
		"initial_value", result.InitialValue,
		"best_value", result.BestValue,
		"converged", result.Converged,
	)

	fmt.Printf("Best observed: f(%v) = %.6f\n", result.BestPoint, result.BestValue)
	fmt.Printf("Recommended:   f(%v) = %.6f\n", recommended, recommendedValue)
	fmt.Printf("Known optimum: %.6f\n", bm.Optimum)

	return nil
}
