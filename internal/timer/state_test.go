package timer

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/balkashynov/tock/internal/models"
)

func TestStart(t *testing.T) {
	is := is.New(t)

	paused := stopped("a", 50)
	paused.IsPaused = true
	paused.PausedTime = 9

	got, patch, err := Start(paused, 200)
	is.NoErr(err)
	is.Equal(got.State(), models.StateRunning)
	is.Equal(*got.StartTime, int64(200))
	is.Equal(got.ElapsedTime, int64(50))
	is.Equal(got.PausedTime, int64(0))
	is.Equal(*patch.StartTime, int64(200))
	is.Equal(*patch.IsPaused, false)
	is.True(patch.ElapsedTime == nil)

	// input untouched
	is.True(paused.StartTime == nil)
	is.True(paused.IsPaused)

	_, _, err = Start(got, 300)
	is.True(errors.Is(err, ErrAlreadyRunning))
}

func TestPause(t *testing.T) {
	is := is.New(t)

	got, patch, err := Pause(running("a", 120, 1000), 1030)
	is.NoErr(err)
	is.Equal(got.State(), models.StatePaused)
	is.Equal(got.ElapsedTime, int64(150))
	is.True(got.StartTime == nil)
	is.True(patch.ClearStartTime)
	is.Equal(*patch.ElapsedTime, int64(150))

	_, _, err = Pause(got, 2000)
	is.True(errors.Is(err, ErrNotRunning))
}

func TestStop(t *testing.T) {
	is := is.New(t)

	got, patch, err := Stop(running("a", 0, 100), 160)
	is.NoErr(err)
	is.Equal(got.State(), models.StateStopped)
	is.Equal(got.ElapsedTime, int64(60))
	is.Equal(*patch.IsPaused, false)
	is.Equal(*patch.IsRunning, false)

	// paused -> stopped keeps the baseline
	p := stopped("b", 40)
	p.IsPaused = true
	got, _, err = Stop(p, 9999)
	is.NoErr(err)
	is.Equal(got.ElapsedTime, int64(40))
	is.Equal(got.State(), models.StateStopped)

	_, _, err = Stop(got, 10000)
	is.True(errors.Is(err, ErrAlreadyStopped))
}

func TestStateDerivation(t *testing.T) {
	is := is.New(t)

	// isRunning with isPaused is not a modelled combination; it reads as stopped
	odd := running("a", 0, 10)
	odd.IsPaused = true
	is.Equal(odd.State(), models.StateStopped)
	is.Equal(models.StatePaused.String(), "paused")
}
