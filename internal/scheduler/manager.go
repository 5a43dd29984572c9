package scheduler

import (
	"log"

	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/0xdevcollins/boundless-backend/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Manager owns the periodic maintenance jobs.
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	emitter   logic.EventEmitter
	config    *config.Config
}

func NewManager(db *gorm.DB, emitter logic.EventEmitter, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		emitter:   emitter,
		config:    cfg,
	}
}

// Start creates a manager, registers all jobs and starts the scheduler.
func Start(db *gorm.DB, emitter logic.EventEmitter, cfg *config.Config) *Manager {
	manager := NewManager(db, emitter, cfg)
	manager.RegisterJobs()
	manager.scheduler.Start()

	log.Println("Scheduler started successfully")
	return manager
}

// RegisterJobs registers all periodic jobs.
func (m *Manager) RegisterJobs() {
	m.registerJob(NewThresholdExpiryJob(m.db, m.config))
	m.registerJob(NewCampaignFinishJob(m.db, m.emitter, m.config))
}

// Job is one schedulable unit of periodic work.
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to register job %s: %v", job.GetName(), err)
	}
}

func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		log.Printf("Failed to shutdown scheduler: %v", err)
	}
	log.Println("Scheduler stopped")
}
