package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/partygm/internal/cartridge"
	"github.com/danielpatrickdp/partygm/internal/codec"
	"github.com/danielpatrickdp/partygm/internal/config"
	"github.com/danielpatrickdp/partygm/internal/gm"
	"github.com/danielpatrickdp/partygm/internal/logging"
	"github.com/danielpatrickdp/partygm/internal/random"
	"github.com/danielpatrickdp/partygm/internal/session"
	"github.com/danielpatrickdp/partygm/internal/store"
)

// #region main
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	st, err := store.NewStore(cfg.DBPath, logger)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	transport, err := buildTransport(cfg, logger)
	if err != nil {
		log.Fatalf("failed to build transport: %v", err)
	}

	client := gm.NewClient(transport, cfg, logger)
	src, err := random.NewFromEntropy()
	if err != nil {
		log.Fatalf("failed to seed rng: %v", err)
	}

	registry := cartridge.NewRegistry(src, logger)
	for _, def := range cartridge.Builtins() {
		registry.Register(def)
	}
	chooser := gm.NewChooser(client)

	sess, err := openSession(cfg, st, client, registry, chooser, src, logger)
	if err != nil {
		log.Fatalf("failed to open session: %v", err)
	}

	fmt.Println("Party game master ready.")
	fmt.Printf("  DB: %s | Transport: %s | Session: %s\n", cfg.DBPath, cfg.Transport, sess.Setup.SessionID)
	fmt.Println("Commands: advance, answer <text>, award <player> <points>, complete, scores, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "quit", "exit":
			return
		case "advance":
			runTurn(st, sess)
		case "answer":
			if rest == "" {
				fmt.Println("usage: answer <text>")
				continue
			}
			sess.SubmitAnswer(rest)
			save(st, sess)
		case "award":
			player, pointsStr, _ := strings.Cut(rest, " ")
			points, err := strconv.Atoi(pointsStr)
			if player == "" || err != nil {
				fmt.Println("usage: award <player> <points>")
				continue
			}
			sess.AwardPoints(player, points)
			save(st, sess)
		case "complete":
			sess.CompleteCartridge()
			save(st, sess)
		case "scores":
			for id, pts := range sess.Scores() {
				fmt.Printf("  %-12s %d\n", id, pts)
			}
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

// #endregion main

// #region turn
func runTurn(st *store.Store, sess *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := sess.Advance(ctx)
	if err != nil {
		log.Printf("turn error: %v", err)
		return
	}

	fmt.Printf("\n== %s ==\n%s\n\n", result.Response.Screen.Title, result.Response.Screen.Body)
	fmt.Printf("[%s] act=%d urgency=%s decision=%s\n",
		sess.State, sess.Act, result.Guide.Urgency, result.Decision.Action)

	save(st, sess)

	detail, _ := json.Marshal(logging.TurnRecord{
		State:         sess.State,
		Act:           sess.Act,
		Urgency:       result.Guide.Urgency.String(),
		ElapsedMs:     result.Guide.ElapsedMs,
		RemainingMs:   result.Guide.RemainingMs,
		PacingReasons: result.Guide.Reasons,
		CartridgeID:   result.Cartridge,
		NextState:     result.Response.NextState,
		FactsStored:   len(result.Response.FactsToStore),
		ScreenTitle:   result.Response.Screen.Title,
	})
	err = logging.LogDecision(st.DB(), logging.DecisionEntry{
		SessionID:   sess.Setup.SessionID,
		RequestType: string(result.RequestType),
		Action:      result.Decision.Action,
		Reason:      result.Decision.Reason,
		DetailJSON:  string(detail),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("logging error: %v", err)
	}
}

func save(st *store.Store, sess *session.Session) {
	st.Autosave(sess.Snapshot())
}

// #endregion turn

// #region setup
func buildTransport(cfg config.Config, logger *zap.Logger) (codec.Transport, error) {
	switch cfg.Transport {
	case "gemini":
		return codec.NewGeminiTransport(context.Background(), cfg.GeminiAPIKey, cfg.ModelName)
	default:
		timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
		return codec.NewHTTPTransport(cfg.ModelURL, cfg.ModelAPIKey, cfg.ModelName, timeout, logger), nil
	}
}

// openSession resumes the session named by PARTYGM_SESSION_ID, or
// starts a fresh lobby from PARTYGM_PLAYERS (comma-separated names).
func openSession(cfg config.Config, st *store.Store, client *gm.Client, registry *cartridge.Registry, chooser cartridge.Chooser, src *random.Source, logger *zap.Logger) (*session.Session, error) {
	if id := os.Getenv("PARTYGM_SESSION_ID"); id != "" {
		bundle, err := st.LoadBundle(id)
		if err != nil {
			return nil, fmt.Errorf("resume session %s: %w", id, err)
		}
		log.Printf("resuming session %s (state %s)", id, bundle.State)
		return session.Restore(cfg, bundle, client, registry, chooser, src, logger)
	}

	names := strings.Split(envOr("PARTYGM_PLAYERS", "Ana,Bo,Cleo"), ",")
	players := make([]session.Player, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		players = append(players, session.Player{
			ID:       fmt.Sprintf("p%d", i+1),
			Name:     name,
			JoinedAt: time.Now().UTC(),
		})
	}

	durationMin, _ := strconv.Atoi(envOr("PARTYGM_DURATION_MIN", "30"))
	setup := session.Setup{
		Players:          players,
		TargetDurationMs: int64(durationMin) * 60 * 1000,
		SafetyMode:       envOr("PARTYGM_SAFETY_MODE", "family"),
	}
	return session.New(cfg, setup, client, registry, chooser, src, logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion setup
