package cache

import "time"

// Sweeper is implemented by caches that can drop expired entries.
type Sweeper interface {
	CleanExpired(grace time.Duration) int
}

// Manager periodically sweeps every registered cache.
type Manager struct {
	sweepers []Sweeper
	grace    time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewManager(grace time.Duration) *Manager {
	return &Manager{
		grace: grace,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Register adds a cache to the sweep rotation. Not safe to call after
// Start.
func (m *Manager) Register(s Sweeper) {
	m.sweepers = append(m.sweepers, s)
}

func (m *Manager) Start(interval time.Duration) {
	go m.run(interval)
}

func (m *Manager) run(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, s := range m.sweepers {
				s.CleanExpired(m.grace)
			}
		case <-m.stop:
			return
		}
	}
}

// Stop ends the sweep loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}
