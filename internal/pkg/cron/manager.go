package cron

import (
	"BuzzDaddy/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

// Schedule 一个阶段任务及其 cron 表达式，表达式为空表示不启用
type Schedule struct {
	Spec string
	Job  *job.AutopilotJob
}

type Manager struct {
	engine    *cron.Cron
	schedules []Schedule
}

// NewCronManager 表达式可以是 5 段或带秒的 6 段
func NewCronManager(schedules ...Schedule) *Manager {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Manager{
		engine: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		schedules: schedules,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	for _, schedule := range s.schedules {
		if schedule.Spec == "" {
			log.Info("Cron job disabled", "stage", schedule.Job.Stage())
			continue
		}
		if _, err := s.engine.AddJob(schedule.Spec, schedule.Job); err != nil {
			return err
		}
		log.Info("Cron job registered", "stage", schedule.Job.Stage(), "spec", schedule.Spec)
	}
	return nil
}

// Entries 已注册的任务数
func (s *Manager) Entries() int {
	return len(s.engine.Entries())
}

// InitCron 注册并启动所有阶段任务
func InitCron(mgr *Manager) error {
	log.Info("Cron Jobs starting...")
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()
	for _, entry := range mgr.engine.Entries() {
		if j, ok := entry.Job.(*job.AutopilotJob); ok {
			log.Info("Cron job scheduled", "stage", j.Stage(), "next", entry.Next)
		}
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron engine started")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron engine stopped")
	<-s.engine.Stop().Done()
}
