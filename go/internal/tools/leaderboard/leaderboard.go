package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/binaryquiz/go/internal/dbconfig"
)

// Prints the best games and the hardest images of a quiz from the Postgres
// results store.
func main() {
	quizID := flag.String("quiz", "", "quiz id (required)")
	limit := flag.Int("limit", 10, "number of games to list")
	flag.Parse()

	if *quizID == "" {
		fmt.Fprintln(os.Stderr, "usage: leaderboard -quiz <id> [-limit n]")
		os.Exit(2)
	}

	// 1) Connect using shared dbconfig
	_ = godotenv.Load()
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 2) Top scores
	if err := printTopScores(ctx, pool, os.Stdout, *quizID, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "top scores: %v\n", err)
		os.Exit(1)
	}

	// 3) Per image accuracy
	if err := printImageStats(ctx, pool, os.Stdout, *quizID); err != nil {
		fmt.Fprintf(os.Stderr, "image stats: %v\n", err)
		os.Exit(1)
	}
}

// querier is the part of *pgxpool.Pool the report reads through.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type topScore struct {
	ID          string
	Score       int64
	TotalRounds int64
	Skipped     int64
	CompletedAt int64
}

func printTopScores(ctx context.Context, pool querier, out io.Writer, quizID string, limit int) error {
	rows, err := pool.Query(ctx, `
        SELECT id::text, score, total_rounds, rounds_skipped, completed_at
        FROM game_results
        WHERE quiz_id = $1
        ORDER BY score DESC, completed_at ASC
        LIMIT $2
    `, quizID, limit)
	if err != nil {
		return err
	}
	scores, err := pgx.CollectRows(rows, pgx.RowToStructByPos[topScore])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Top %d games for %s\n", limit, quizID)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSCORE\tSKIPPED\tCOMPLETED\tGAME")
	for i, s := range scores {
		fmt.Fprintf(w, "%d\t%d/%d\t%d\t%s\t%s\n",
			i+1, s.Score, s.TotalRounds, s.Skipped,
			time.UnixMilli(s.CompletedAt).UTC().Format(time.DateTime), s.ID)
	}
	return w.Flush()
}

type imageStat struct {
	ImageRef string
	Attempts int64
	Correct  int64
	Timeouts int64
}

func (s imageStat) accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return 100 * float64(s.Correct) / float64(s.Attempts)
}

func printImageStats(ctx context.Context, pool querier, out io.Writer, quizID string) error {
	rows, err := pool.Query(ctx, `
        SELECT r.image_ref,
               COUNT(*),
               SUM(CASE WHEN r.is_correct THEN 1 ELSE 0 END),
               SUM(CASE WHEN r.user_guess = 'TIMEOUT' THEN 1 ELSE 0 END)
        FROM round_results r
        JOIN game_results g ON g.id = r.game_id
        WHERE g.quiz_id = $1
        GROUP BY r.image_ref
        ORDER BY SUM(CASE WHEN r.is_correct THEN 1 ELSE 0 END) * 1.0 / COUNT(*) ASC, r.image_ref ASC
    `, quizID)
	if err != nil {
		return err
	}
	stats, err := pgx.CollectRows(rows, pgx.RowToStructByPos[imageStat])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nImages of %s, hardest first\n", quizID)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IMAGE\tATTEMPTS\tCORRECT\tTIMEOUTS\tACCURACY")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.0f%%\n",
			s.ImageRef, s.Attempts, s.Correct, s.Timeouts, s.accuracy())
	}
	return w.Flush()
}
