package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hpungsan/voxnote/internal/audio"
	"github.com/hpungsan/voxnote/internal/db"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/session"
	"github.com/hpungsan/voxnote/internal/store"
	"github.com/hpungsan/voxnote/internal/transcript"
)

func (a *App) sessionOptions() session.Options {
	s := a.store.Settings()
	return session.Options{
		VAD:                    s.VAD(),
		Diarization:            s.Diarization(),
		RetainAudio:            s.RecordAudio,
		SpeakerChangeThreshold: time.Duration(s.SpeakerChangeThresholdMS) * time.Millisecond,
	}
}

// ToggleRecording starts a session on the active note, or stops the running one.
func (a *App) ToggleRecording(ctx context.Context) error {
	return a.do(ctx, func() error {
		if a.ctrl.State().Active() {
			a.ctrl.Stop()
			return nil
		}
		return a.startRecording(ctx)
	})
}

// StartRecording starts a session on the active note. It is a no-op while recording.
func (a *App) StartRecording(ctx context.Context) error {
	return a.do(ctx, func() error { return a.startRecording(ctx) })
}

// StopRecording ends the running session and returns its summary (nil if none ran).
func (a *App) StopRecording(ctx context.Context) (*session.Summary, error) {
	var sum *session.Summary
	err := a.do(ctx, func() error {
		sum = a.ctrl.Stop()
		return nil
	})
	return sum, err
}

func (a *App) startRecording(ctx context.Context) error {
	if a.ctrl.State().Active() {
		return nil
	}
	if a.capErr != nil {
		a.status = statusForError(a.capErr)
		return a.capErr
	}
	a.ctrl.SetOptions(a.sessionOptions())
	a.recordNoteID = a.store.ActiveID()
	a.postActions = false
	if err := a.ctrl.Start(ctx); err != nil {
		a.recordNoteID = ""
		a.status = statusForError(err)
		return err
	}
	return nil
}

// onSessionEvent runs on the app goroutine for every controller notification.
func (a *App) onSessionEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventState:
		a.status = a.ctrl.Status()
		if ev.State == session.Listening {
			a.armSilenceTimeout()
		} else {
			a.silenceGen++
		}
	case session.EventStopped:
		a.silenceGen++
		a.finishRecording(ev.Summary)
		a.status = a.ctrl.Status()
	}
	a.changed()
}

// armSilenceTimeout stops the session if no speech starts within the
// configured silence timeout.
func (a *App) armSilenceTimeout() {
	secs := a.store.Settings().SilenceTimeout
	a.silenceGen++
	if secs <= 0 {
		return
	}
	gen := a.silenceGen
	a.clock.AfterFunc(time.Duration(secs)*time.Second, func() {
		a.inbox.post(func() {
			if gen != a.silenceGen || a.ctrl.State() != session.Listening {
				return
			}
			a.logger.Info("silence timeout reached", "seconds", secs)
			a.ctrl.Stop()
		})
	})
}

func (a *App) finishRecording(sum *session.Summary) {
	noteID := a.recordNoteID
	a.recordNoteID = ""
	if sum == nil || noteID == "" {
		return
	}

	var audioPath *string
	if len(sum.AudioChunks) > 0 {
		path := filepath.Join(a.baseDir, "audio", sum.SessionID+".wav")
		if err := audio.WriteWAV(path, a.sampleRate(), sum.AudioChunks); err != nil {
			a.logger.Error("retained audio not written", "error", err)
		} else {
			audioPath = &path
			ref := "file://" + path
			refPtr := &ref
			if _, err := a.store.UpdateNote(noteID, store.NotePatch{AudioReference: &refPtr}); err != nil {
				a.logger.Warn("audio reference not set", "note_id", noteID, "error", err)
			}
		}
	}

	var code *string
	if vErr, ok := errors.As(sum.Err); ok {
		c := string(vErr.Code)
		code = &c
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := db.InsertRecording(ctx, a.db, &db.Recording{
		ID:           sum.SessionID,
		NoteID:       noteID,
		StartedAt:    sum.StartedAt.UnixMilli(),
		StoppedAt:    sum.StoppedAt.UnixMilli(),
		Outcome:      string(sum.Outcome),
		ErrorCode:    code,
		SegmentCount: sum.Segments,
		AudioPath:    audioPath,
	})
	if err != nil {
		a.logger.Warn("recording log not written", "error", err)
	}

	a.postActions = a.ctrl.PostActionsVisible()
	if err := a.saveNow(); err != nil {
		a.status = "Save failed: " + err.Error()
	}
}

func (a *App) sampleRate() int {
	if a.cfg.SampleRate > 0 {
		return a.cfg.SampleRate
	}
	return audio.DefaultSampleRate
}

// Discard clears the transcript of the session that just ended.
func (a *App) Discard(ctx context.Context) error {
	return a.do(ctx, func() error {
		if a.ctrl.State().Active() {
			return errBusyRecording()
		}
		if err := a.acc.Clear(); err != nil {
			return err
		}
		a.postActions = false
		a.transcriptChanged()
		return nil
	})
}

// Seek plays the active note's retained audio from ms.
func (a *App) Seek(ctx context.Context, ms int64) error {
	return a.do(ctx, func() error {
		if a.player == nil {
			return errors.NewCapabilityMissing("audio playback")
		}
		n := a.store.Active()
		if n.AudioReference == nil {
			return errors.NewInvalidRequest("note has no retained audio")
		}
		path, err := localAudioPath(*n.AudioReference)
		if err != nil {
			return err
		}
		if err := a.player.Load(path); err != nil {
			return errors.NewInternal(err)
		}
		if err := a.player.Seek(ms); err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
}

// SeekSegment plays from the timestamp of the i-th segment of the active transcript.
func (a *App) SeekSegment(ctx context.Context, i int) error {
	var ms int64
	err := a.read(ctx, func() error {
		segs := transcript.ParseSegments(a.acc.Markup())
		if i < 0 || i >= len(segs) {
			return errors.NewInvalidRequest(fmt.Sprintf("segment %d out of range", i))
		}
		ms = segs[i].TimestampMS
		return nil
	})
	if err != nil {
		return err
	}
	return a.Seek(ctx, ms)
}

// Recordings lists the session log of a note ("" for all notes), newest first.
func (a *App) Recordings(ctx context.Context, noteID string, limit int) ([]db.Recording, error) {
	return db.ListRecordings(ctx, a.db, noteID, limit)
}

func localAudioPath(ref string) (string, error) {
	const prefix = "file://"
	if len(ref) <= len(prefix) || ref[:len(prefix)] != prefix {
		return "", errors.NewInvalidRequest(fmt.Sprintf("unsupported audio reference %q", ref))
	}
	path := ref[len(prefix):]
	if _, err := os.Stat(path); err != nil {
		return "", errors.NewNotFound("audio", path)
	}
	return path, nil
}

func statusForError(err error) string {
	vErr, ok := errors.As(err)
	if !ok {
		return err.Error()
	}
	switch vErr.Code {
	case errors.ErrPermissionDenied:
		return "Microphone access denied."
	case errors.ErrCapabilityMissing:
		if c, ok := vErr.Details["capability"].(string); ok {
			return "Not supported: " + c
		}
		return "Not supported: " + vErr.Message
	}
	return vErr.Message
}

// CanRecord reports whether the startup capability probe passed.
func (a *App) CanRecord() bool { return a.capErr == nil }

// CanPlay reports whether retained audio can be played back.
func (a *App) CanPlay() bool { return a.player != nil }
