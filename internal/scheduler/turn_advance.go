package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/tradewarsim/engine/internal/services"
)

// TurnAdvanceJob advances the simulation one turn on a cron schedule.
// Registered only when TURN_CRON is set; otherwise turns advance through
// the API alone.
type TurnAdvanceJob struct {
	turns *services.TurnService
	log   zerolog.Logger
}

// NewTurnAdvanceJob creates a new turn advance job.
func NewTurnAdvanceJob(turns *services.TurnService, log zerolog.Logger) *TurnAdvanceJob {
	return &TurnAdvanceJob{
		turns: turns,
		log:   log.With().Str("job", "turn_advance").Logger(),
	}
}

// Name returns the job name
func (j *TurnAdvanceJob) Name() string {
	return "turn_advance"
}

// Run advances every country one turn.
func (j *TurnAdvanceJob) Run() error {
	turn, err := j.turns.AdvanceAll()
	if err != nil {
		return err
	}

	j.log.Info().Int("turn", turn).Msg("Scheduled turn advance completed")
	return nil
}
