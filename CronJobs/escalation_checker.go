package CronJobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"Hearth/Escalation"
	"Hearth/Models"
)

// EscalationChecker periodically fans out one escalation evaluation per
// open task. Evaluations are independent; overlapping ticks for the same
// task converge without duplicate notifications because the engine's
// guarded writes decide who fires.
type EscalationChecker struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	engine         *Escalation.Engine
	schedule       string
	runImmediately bool
	jobID          cron.EntryID
}

// NewEscalationChecker creates a checker with the given configuration.
func NewEscalationChecker(db *gorm.DB, engine *Escalation.Engine, runImmediately bool) *EscalationChecker {
	return &EscalationChecker{
		cronScheduler:  cron.New(cron.WithSeconds()),
		db:             db,
		engine:         engine,
		schedule:       "0 */5 * * * *",
		runImmediately: runImmediately,
	}
}

// Start initiates the escalation check cron job
func (c *EscalationChecker) Start() error {
	var err error
	c.jobID, err = c.cronScheduler.AddFunc(c.schedule, func() {
		c.runCheck()
	})

	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	c.cronScheduler.Start()
	fmt.Println("Escalation check scheduler started - runs every 5 minutes")

	if c.runImmediately {
		c.runCheck()
	}

	return nil
}

// Stop terminates the checker
func (c *EscalationChecker) Stop() {
	if c.cronScheduler != nil {
		c.cronScheduler.Stop()
		log.Println("Escalation check scheduler stopped")
	}
}

// UpdateSchedule changes the check cadence.
// Format: "0 */5 * * * *" = every five minutes
func (c *EscalationChecker) UpdateSchedule(schedule string) error {
	c.cronScheduler.Remove(c.jobID)

	var err error
	c.jobID, err = c.cronScheduler.AddFunc(schedule, func() {
		c.runCheck()
	})

	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	c.schedule = schedule
	log.Printf("Escalation check schedule updated to: %s\n", schedule)
	return nil
}

// RunManualCheck executes a check outside the schedule
func (c *EscalationChecker) RunManualCheck() {
	log.Println("Running manual escalation check")
	c.runCheck()
}

func (c *EscalationChecker) runCheck() {
	now := time.Now()

	var tasks []Models.Task
	err := c.db.Where("status IN ? AND due_date IS NOT NULL",
		[]string{Models.TaskPending, Models.TaskOverdue}).
		Find(&tasks).Error
	if err != nil {
		log.Printf("Error fetching open tasks: %v", err)
		return
	}

	// Parent lists rarely change within a run; look each family up once.
	parentCache := make(map[uint][]uint)
	for _, task := range tasks {
		if _, ok := parentCache[task.FamilyID]; ok {
			continue
		}
		parents, err := Models.ParentIDs(c.db, task.FamilyID)
		if err != nil {
			log.Printf("Error fetching parents for family %d: %v", task.FamilyID, err)
			continue
		}
		parentCache[task.FamilyID] = parents
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range tasks {
		task := tasks[i]
		parents, ok := parentCache[task.FamilyID]
		if !ok {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.engine.Check(ctx, &task, task.AssignedToID, parents, now); err != nil {
				log.Printf("Error checking task %d: %v", task.ID, err)
			}
		}()
	}
	wg.Wait()

	log.Printf("Escalation check completed for %d open tasks", len(tasks))
}
