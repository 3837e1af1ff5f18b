package core

import "time"

// GameState represents the overall game state
type GameState uint8

const (
	StatePlaying GameState = iota
	StatePaused
	StateGameOver
)

// Ticker is anything that can advance one fixed simulation step. A match
// implements it by updating its world and draining its event queue.
type Ticker interface {
	Tick(dt float64)
}

// GameLoop manages the fixed-timestep loop for deterministic simulation.
// Wall-clock time is accumulated and consumed in fixed dt steps, so the
// simulation advances identically however often Update is called.
type GameLoop struct {
	Target      Ticker
	State       GameState
	TickRate    float64 // fixed ticks per second
	accumulator float64
	lastTime    time.Time
	ticks       uint64
}

// NewGameLoop creates a game loop with fixed tick rate
func NewGameLoop(tickRate float64, target Ticker) *GameLoop {
	return &GameLoop{
		Target:   target,
		TickRate: tickRate,
		lastTime: time.Now(),
	}
}

// Update should be called regularly from the host loop. It runs as many
// fixed steps as wall-clock time since the last call allows and returns
// how many were run.
func (gl *GameLoop) Update() int {
	now := time.Now()
	frameTime := now.Sub(gl.lastTime).Seconds()
	gl.lastTime = now

	// Cap frame time to avoid spiral of death
	if frameTime > 0.25 {
		frameTime = 0.25
	}

	dt := 1.0 / gl.TickRate
	gl.accumulator += frameTime

	ran := 0
	for gl.accumulator >= dt {
		if gl.State == StatePlaying {
			gl.Target.Tick(dt)
			gl.ticks++
			ran++
		}
		gl.accumulator -= dt
	}
	return ran
}

// Step advances exactly n fixed steps regardless of wall-clock time, for
// headless runs and tests.
func (gl *GameLoop) Step(n int) {
	dt := 1.0 / gl.TickRate
	for i := 0; i < n; i++ {
		gl.Target.Tick(dt)
		gl.ticks++
	}
}

// Play starts or resumes the game
func (gl *GameLoop) Play() {
	gl.State = StatePlaying
	gl.lastTime = time.Now()
}

// Pause pauses the game
func (gl *GameLoop) Pause() {
	gl.State = StatePaused
}

// CurrentTick returns the number of steps run so far.
func (gl *GameLoop) CurrentTick() uint64 {
	return gl.ticks
}
