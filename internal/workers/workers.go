package workers

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"swimProgressAPI/internal/types/notification"
)

// StartSweepWorker runs the hourly housekeeping pass: goals whose window
// closed without a claim are expired, and challenge statuses are rolled
// forward based on their date windows.
func StartSweepWorker(ctx context.Context, db *pgxpool.Pool) {
	ticker := time.NewTicker(1 * time.Hour)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep(db)
			}
		}
	}()
}

func sweep(db *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Println("Starting hourly progress sweep...")

	tag, err := db.Exec(ctx, `
		UPDATE goals
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND end_date < CURRENT_DATE
	`)
	if err != nil {
		log.Printf("Error expiring stale goals: %v", err)
	} else if tag.RowsAffected() > 0 {
		log.Printf("Expired %d stale goals", tag.RowsAffected())
	}

	tag, err = db.Exec(ctx, `
		UPDATE challenges
		SET status = 'active', updated_at = NOW()
		WHERE status = 'upcoming' AND start_date <= CURRENT_DATE
	`)
	if err != nil {
		log.Printf("Error activating upcoming challenges: %v", err)
	} else if tag.RowsAffected() > 0 {
		log.Printf("Activated %d upcoming challenges", tag.RowsAffected())
	}

	tag, err = db.Exec(ctx, `
		UPDATE challenges
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'active' AND end_date < CURRENT_DATE
	`)
	if err != nil {
		log.Printf("Error closing ended challenges: %v", err)
	} else if tag.RowsAffected() > 0 {
		log.Printf("Closed %d ended challenges", tag.RowsAffected())
	}

	// Today is the last covered day for these streaks; warn once per day.
	tag, err = db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, data, read, created_at)
		SELECT gen_random_uuid(), s.user_id, $1,
		       'Streak at risk!',
		       'Your ' || s.current_streak || '-day streak ends today. Swim to keep it alive.',
		       json_build_object('days', s.current_streak),
		       FALSE, NOW()
		FROM streaks s
		WHERE s.type = 'swimming'
		  AND s.current_streak > 0
		  AND s.last_counted_date + 1 + s.freeze_tokens = CURRENT_DATE
		  AND NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.user_id = s.user_id AND n.type = $1 AND n.created_at::date = CURRENT_DATE
		  )
	`, notification.TypeStreakAtRisk)
	if err != nil {
		log.Printf("Error raising streak warnings: %v", err)
	} else if tag.RowsAffected() > 0 {
		log.Printf("Raised %d streak warnings", tag.RowsAffected())
	}
}
