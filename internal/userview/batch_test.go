package userview_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/userview"
	"github.com/stretchr/testify/assert"
)

func TestRunBatch_AllSucceed(t *testing.T) {
	users := roster(3)

	summary := userview.RunBatch(context.Background(), userview.ActionRemove, users, 0,
		func(ctx context.Context, u *models.User) error { return nil })

	assert.Equal(t, 3, summary.Succeeded())
	assert.Equal(t, 0, summary.Failed())
	assert.NoError(t, summary.Err())
	assert.Equal(t, "Remove users successfully.", summary.Message())
}

func TestRunBatch_SingleUserWording(t *testing.T) {
	ok := userview.RunBatch(context.Background(), userview.ActionRemove, roster(1), 0,
		func(ctx context.Context, u *models.User) error { return nil })
	failed := userview.RunBatch(context.Background(), userview.ActionRemove, roster(1), 0,
		func(ctx context.Context, u *models.User) error { return errors.New("user not found") })

	assert.Equal(t, "Remove user successfully.", ok.Message())
	assert.Equal(t, "Remove user with 1 failed.\nuser not found", failed.Message())
}

func TestRunBatch_PartialFailureIsIsolated(t *testing.T) {
	users := roster(3)

	var calls atomic.Int32
	summary := userview.RunBatch(context.Background(), userview.ActionRemove, users, 0,
		func(ctx context.Context, u *models.User) error {
			calls.Add(1)
			if u.Username == "user01" {
				return errors.New("remove user01: permission denied")
			}
			return nil
		})

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, summary.Succeeded())
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, "Remove users with 1 failed.\nremove user01: permission denied", summary.Message())
	assert.Equal(t, []string{"user00", "user01", "user02"}, []string{
		summary.Results[0].Username, summary.Results[1].Username, summary.Results[2].Username,
	})
}

func TestRunBatch_FailuresKeepSelectionOrder(t *testing.T) {
	users := roster(4)

	summary := userview.RunBatch(context.Background(), userview.ActionUpdatePassword, users, 0,
		func(ctx context.Context, u *models.User) error {
			if u.Username == "user00" {
				// Finish last so completion order differs from selection order.
				time.Sleep(20 * time.Millisecond)
			}
			return errors.New(u.Username + " failed")
		})

	assert.Equal(t, "Update password of users with 4 failed.\nuser00 failed\nuser01 failed\nuser02 failed\nuser03 failed", summary.Message())
}

func TestRunBatch_RunsConcurrently(t *testing.T) {
	users := roster(5)
	release := make(chan struct{})
	var inFlight, peak atomic.Int32

	done := make(chan userview.BatchSummary)
	go func() {
		done <- userview.RunBatch(context.Background(), userview.ActionRemove, users, 0,
			func(ctx context.Context, u *models.User) error {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				<-release
				inFlight.Add(-1)
				return nil
			})
	}()

	assert.Eventually(t, func() bool { return peak.Load() == 5 }, time.Second, 5*time.Millisecond)
	close(release)
	summary := <-done
	assert.Equal(t, 5, summary.Succeeded())
}

func TestRunBatch_Limit(t *testing.T) {
	users := roster(6)
	var inFlight, peak atomic.Int32

	userview.RunBatch(context.Background(), userview.ActionRemove, users, 2,
		func(ctx context.Context, u *models.User) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		})

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunBatch_Empty(t *testing.T) {
	summary := userview.RunBatch(context.Background(), userview.ActionRemove, nil, 0,
		func(ctx context.Context, u *models.User) error { return nil })

	assert.Equal(t, 0, summary.Total())
	assert.NoError(t, summary.Err())
}
