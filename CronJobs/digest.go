package CronJobs

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"Hearth/Models"
	"Hearth/Notifications"
)

// DailyDigest posts a morning summary of every family's open work to the
// Slack channel: pending and overdue task counts plus unresolved
// escalations. Families with nothing open are skipped.
type DailyDigest struct {
	cronScheduler *cron.Cron
	db            *gorm.DB
	slack         *Notifications.SlackGateway
	jobID         cron.EntryID
}

func NewDailyDigest(db *gorm.DB, slack *Notifications.SlackGateway) *DailyDigest {
	return &DailyDigest{
		cronScheduler: cron.New(cron.WithSeconds()),
		db:            db,
		slack:         slack,
	}
}

// Start schedules the digest for 6 AM every day.
func (d *DailyDigest) Start() error {
	var err error
	d.jobID, err = d.cronScheduler.AddFunc("0 0 6 * * *", func() {
		d.runDigest()
	})

	if err != nil {
		return fmt.Errorf("error scheduling digest job: %w", err)
	}

	d.cronScheduler.Start()
	fmt.Println("Daily digest scheduler started - runs at 6 AM")
	return nil
}

func (d *DailyDigest) Stop() {
	if d.cronScheduler != nil {
		d.cronScheduler.Stop()
		log.Println("Daily digest scheduler stopped")
	}
}

// RunManualDigest posts a digest outside the schedule
func (d *DailyDigest) RunManualDigest() {
	log.Println("Running manual digest")
	d.runDigest()
}

func (d *DailyDigest) runDigest() {
	var families []Models.Family
	if err := d.db.Find(&families).Error; err != nil {
		log.Printf("Error fetching families for digest: %v", err)
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("*Morning digest — %s*\n", time.Now().Format("Mon Jan 2")))

	included := 0
	for _, family := range families {
		var overdue int64
		if err := d.db.Model(&Models.Task{}).
			Where("family_id = ? AND status = ?", family.ID, Models.TaskOverdue).
			Count(&overdue).Error; err != nil {
			log.Printf("Error counting overdue tasks for family %d: %v", family.ID, err)
			continue
		}

		var escalated int64
		if err := d.db.Model(&Models.Escalation{}).
			Where("family_id = ? AND resolved_reason IS NULL", family.ID).
			Count(&escalated).Error; err != nil {
			log.Printf("Error counting escalations for family %d: %v", family.ID, err)
			continue
		}

		if family.PendingTasks == 0 && overdue == 0 && escalated == 0 {
			continue
		}

		b.WriteString(fmt.Sprintf("• %s: %d pending, %d overdue, %d escalated\n",
			family.Name, family.PendingTasks, overdue, escalated))
		included++
	}

	if included == 0 {
		log.Println("Digest skipped: no families with open work")
		return
	}

	if err := d.slack.PostDigest(context.Background(), b.String()); err != nil {
		log.Printf("Error posting daily digest: %v", err)
		return
	}
	log.Printf("Daily digest posted for %d families", included)
}
