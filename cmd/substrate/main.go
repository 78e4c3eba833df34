// Command substrate runs the capability-matching engine against a small
// built-in scenario: it indexes a handful of profiles, finds matches for a
// need, prints the explanation for the top match, and records an outcome.
// Useful for smoke-testing a deployment's configuration (embedding
// provider, vector index, persistence) end to end.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/substratehq/substrate"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("SUBSTRATE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	eng, err := substrate.New(
		substrate.WithLogger(logger),
		substrate.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer func() { _ = eng.Close(context.Background()) }()

	for _, p := range sampleProfiles() {
		if err := eng.IndexProfile(ctx, p); err != nil {
			return fmt.Errorf("index %s: %w", p.UserID, err)
		}
	}

	need := substrate.Need{
		ID:          uuid.New(),
		Type:        substrate.TypeSkill,
		Name:        "autonomous navigation for a warehouse robot",
		Description: "Need help implementing SLAM-based navigation with obstacle avoidance on a differential-drive platform",
		Urgency:     0.7,
		Importance:  0.9,
		Domain:      substrate.DomainRobotics,
		Tags:        []string{"ros2", "slam", "navigation"},
		Constraints: map[string]any{"budget": 5000.0},
	}

	findCtx, findCancel := context.WithTimeout(ctx, 10*time.Second)
	defer findCancel()
	set, err := eng.FindMatches(findCtx, need, "demo-requester", 5)
	if err != nil {
		return fmt.Errorf("find matches: %w", err)
	}
	if len(set.Matches) == 0 {
		fmt.Println("no matches above the score threshold")
		return nil
	}

	fmt.Printf("found %d match(es), partial=%v\n\n", len(set.Matches), set.Partial)
	for _, m := range set.Matches {
		fmt.Printf("  %.3f  %-14s %s\n", m.MatchScore, m.CapabilityUserID, m.Capability.Name)
	}

	top := set.Matches[0]
	md, err := eng.ExplainMarkdown(top.ID, substrate.ExplainOptions{
		IncludeReasoning:    true,
		IncludeVerification: true,
	})
	if err != nil {
		return fmt.Errorf("explain: %w", err)
	}
	fmt.Println()
	fmt.Println(md)

	if err := eng.ResolveMatch(ctx, top.ID, substrate.MatchAccepted); err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	if err := eng.ResolveMatch(ctx, top.ID, substrate.MatchCompleted); err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	if _, _, err := eng.RecordOutcome(ctx, top.ID, true); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	fmt.Println("recorded a successful outcome for the top match")

	return nil
}

func sampleProfiles() []substrate.Profile {
	return []substrate.Profile{
		{
			UserID:   "demo-requester",
			Timezone: "America/New_York",
			Domains:  []substrate.Domain{substrate.DomainRobotics},
			Capabilities: []substrate.Capability{{
				ID:          uuid.New(),
				Type:        substrate.TypeResource,
				Name:        "warehouse robot testbed",
				Description: "Differential-drive platform with lidar and depth camera available for experiments",
				Proficiency: 0.7,
				Confidence:  0.9,
				Privacy:     substrate.PrivacyNetwork,
				Tags:        []string{"robotics", "hardware"},
			}},
		},
		{
			UserID:   "demo-navigator",
			Timezone: "America/New_York",
			Domains:  []substrate.Domain{substrate.DomainRobotics},
			Capabilities: []substrate.Capability{{
				ID:          uuid.New(),
				Type:        substrate.TypeSkill,
				Name:        "ROS2 navigation stack development",
				Description: "SLAM-based navigation, obstacle avoidance, and path planning for mobile robots",
				Proficiency: 0.9,
				Confidence:  0.85,
				Evidence:    []string{"github.com/example/nav-stack"},
				Privacy:     substrate.PrivacyNetwork,
				Tags:        []string{"ros2", "slam", "navigation"},
			}},
		},
		{
			UserID:   "demo-vision",
			Timezone: "Europe/Berlin",
			Domains:  []substrate.Domain{substrate.DomainRobotics, substrate.DomainSoftware},
			Capabilities: []substrate.Capability{{
				ID:          uuid.New(),
				Type:        substrate.TypeSkill,
				Name:        "computer vision for robot perception",
				Description: "Object detection and depth estimation pipelines for navigation and manipulation",
				Proficiency: 0.8,
				Confidence:  0.8,
				Privacy:     substrate.PrivacyPublic,
				Tags:        []string{"vision", "navigation"},
			}},
		},
	}
}
