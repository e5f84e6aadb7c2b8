package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
)

func podcastFor(date string) *models.PodcastResult {
	return &models.PodcastResult{Date: date, URL: "https://cdn.example/" + date + ".mp3"}
}

func TestPodcastFetcher(t *testing.T) {
	t.Run("defaults to today", func(t *testing.T) {
		api := &fakeAPI{podcastFn: func(_ context.Context, date string) (*models.PodcastResult, error) {
			return podcastFor(date), nil
		}}
		f := NewPodcastFetcher(api, nil)
		f.now = fixedClock("2024-05-01")

		result, err := f.FetchFor(context.Background(), ukScience, "")
		if err != nil {
			t.Fatalf("FetchFor() error = %v", err)
		}
		if result.Date != "2024-05-01" {
			t.Errorf("Date = %q", result.Date)
		}
		if calls := api.podcasts(); len(calls) != 1 || calls[0] != "2024-05-01" {
			t.Errorf("podcast calls = %v", calls)
		}
		if result.Preferences != ukScience {
			t.Errorf("Preferences = %v", result.Preferences)
		}
		if got := f.Podcast(); got == nil || got.URL != "https://cdn.example/2024-05-01.mp3" {
			t.Errorf("Podcast() = %+v", got)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		api := &fakeAPI{}
		f := NewPodcastFetcher(api, nil)

		_, err := f.FetchFor(context.Background(), ukScience, "05/01/2024")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(api.podcasts()) != 0 {
			t.Error("no request should be sent")
		}
	})

	t.Run("absent podcast is a valid result", func(t *testing.T) {
		f := NewPodcastFetcher(&fakeAPI{}, nil)

		result, err := f.FetchFor(context.Background(), ukScience, "2024-05-01")
		if err != nil {
			t.Fatalf("FetchFor() error = %v", err)
		}
		if result.Podcast != nil || result.Stale {
			t.Errorf("result = %+v", result)
		}
		current, ok := f.Current()
		if !ok || current.Podcast != nil {
			t.Errorf("Current() = %+v, %v", current, ok)
		}
	})

	t.Run("later invocation wins when replies arrive out of order", func(t *testing.T) {
		startedA := make(chan struct{})
		releaseA := make(chan struct{})
		api := &fakeAPI{podcastFn: func(_ context.Context, date string) (*models.PodcastResult, error) {
			if date == "2024-05-01" {
				close(startedA)
				<-releaseA
			}
			return podcastFor(date), nil
		}}
		f := NewPodcastFetcher(api, nil)

		resultA := make(chan FetchResult, 1)
		go func() {
			r, _ := f.FetchFor(context.Background(), usSports, "2024-05-01")
			resultA <- r
		}()
		<-startedA

		b, err := f.FetchFor(context.Background(), ukScience, "2024-05-02")
		if err != nil || b.Stale {
			t.Fatalf("B = %+v, %v", b, err)
		}

		close(releaseA)
		a := <-resultA
		if !a.Stale {
			t.Error("A resolved after B and must be stale")
		}
		if a.Sequence >= b.Sequence {
			t.Errorf("A seq %d should be lower than B seq %d", a.Sequence, b.Sequence)
		}

		current, _ := f.Current()
		if current.Date != "2024-05-02" || current.Preferences != ukScience {
			t.Errorf("Current() = %+v, want B's result", current)
		}
	})

	t.Run("in-order replies are both applied", func(t *testing.T) {
		api := &fakeAPI{podcastFn: func(_ context.Context, date string) (*models.PodcastResult, error) {
			return podcastFor(date), nil
		}}
		f := NewPodcastFetcher(api, nil)

		a, _ := f.FetchFor(context.Background(), usSports, "2024-05-01")
		b, _ := f.FetchFor(context.Background(), ukScience, "2024-05-02")
		if a.Stale || b.Stale {
			t.Error("neither result should be stale")
		}
		if current, _ := f.Current(); current.Sequence != b.Sequence {
			t.Errorf("Current().Sequence = %d, want %d", current.Sequence, b.Sequence)
		}
	})

	t.Run("failure keeps the current result", func(t *testing.T) {
		fail := false
		api := &fakeAPI{podcastFn: func(_ context.Context, date string) (*models.PodcastResult, error) {
			if fail {
				return nil, errBoom
			}
			return podcastFor(date), nil
		}}
		f := NewPodcastFetcher(api, nil)
		f.FetchFor(context.Background(), usSports, "2024-05-01")

		fail = true
		if _, err := f.FetchFor(context.Background(), usSports, "2024-05-02"); !errors.Is(err, errBoom) {
			t.Errorf("expected errBoom, got %v", err)
		}
		if current, _ := f.Current(); current.Date != "2024-05-01" {
			t.Errorf("Current().Date = %q, want 2024-05-01", current.Date)
		}
		if n := len(api.podcasts()); n != 2 {
			t.Errorf("expected no retries, got %d calls", n)
		}
	})

	t.Run("failed later fetch supersedes an earlier one", func(t *testing.T) {
		startedA := make(chan struct{})
		releaseA := make(chan struct{})
		api := &fakeAPI{podcastFn: func(_ context.Context, date string) (*models.PodcastResult, error) {
			switch date {
			case "2024-05-02":
				close(startedA)
				<-releaseA
				return podcastFor(date), nil
			case "2024-05-03":
				return nil, errBoom
			}
			return podcastFor(date), nil
		}}
		f := NewPodcastFetcher(api, nil)
		f.FetchFor(context.Background(), deBusiness, "2024-05-01")

		resultA := make(chan FetchResult, 1)
		go func() {
			r, _ := f.FetchFor(context.Background(), usSports, "2024-05-02")
			resultA <- r
		}()
		<-startedA

		b, err := f.FetchFor(context.Background(), ukScience, "2024-05-03")
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
		if b.Stale {
			t.Error("B was the latest fetch and must not be stale")
		}

		close(releaseA)
		if a := <-resultA; !a.Stale {
			t.Error("A resolved after a newer fetch failed and must be stale")
		}
		if current, _ := f.Current(); current.Date != "2024-05-01" || current.Preferences != deBusiness {
			t.Errorf("Current() = %+v, want the result from before both fetches", current)
		}
	})

	t.Run("failure after Reset is stale", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		api := &fakeAPI{podcastFn: func(context.Context, string) (*models.PodcastResult, error) {
			close(started)
			<-release
			return nil, errBoom
		}}
		f := NewPodcastFetcher(api, nil)

		done := make(chan FetchResult, 1)
		go func() {
			r, _ := f.FetchFor(context.Background(), usSports, "2024-05-01")
			done <- r
		}()
		<-started
		f.Reset()
		close(release)

		if r := <-done; !r.Stale {
			t.Error("failure from before Reset must be stale")
		}
	})

	t.Run("Reset makes in-flight fetches stale", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		api := &fakeAPI{podcastFn: func(_ context.Context, date string) (*models.PodcastResult, error) {
			close(started)
			<-release
			return podcastFor(date), nil
		}}
		f := NewPodcastFetcher(api, nil)

		done := make(chan FetchResult, 1)
		go func() {
			r, _ := f.FetchFor(context.Background(), usSports, "2024-05-01")
			done <- r
		}()
		<-started
		f.Reset()
		close(release)

		if r := <-done; !r.Stale {
			t.Error("fetch from before Reset must be stale")
		}
		if _, ok := f.Current(); ok {
			t.Error("no result should be current after Reset")
		}
	})

	t.Run("Current returns a copy", func(t *testing.T) {
		api := &fakeAPI{podcastFn: func(_ context.Context, date string) (*models.PodcastResult, error) {
			return podcastFor(date), nil
		}}
		f := NewPodcastFetcher(api, nil)
		result, _ := f.FetchFor(context.Background(), usSports, "2024-05-01")
		result.Podcast.URL = "mutated"

		if f.Podcast().URL == "mutated" {
			t.Error("caller mutation leaked into the fetcher")
		}
	})
}
