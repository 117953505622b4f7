package session

import events "github.com/JoaquinRaya/gemini-2-clippo/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts SessionOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.ContentSegment:
			if opts.onContentSegment != nil {
				opts.onContentSegment(typedEvent.Segment)
			}
		case events.ContentFinal:
			if opts.onContentFinal != nil {
				opts.onContentFinal()
			}
		case events.SpeechFrame:
			if opts.onAudio != nil {
				opts.onAudio(typedEvent.Audio)
			}
		case events.PlaybackInterrupted:
			if opts.onInterruption != nil {
				opts.onInterruption()
			}
		case events.PlaybackVolume:
			if opts.onVolume != nil {
				opts.onVolume(typedEvent.Level)
			}
		case events.CursorSequenceStarted:
			if opts.onCursorSequence != nil {
				opts.onCursorSequence(typedEvent.RunID, true)
			}
		case events.CursorProposed:
			if opts.onCursor != nil {
				opts.onCursor(typedEvent.X, typedEvent.Y, typedEvent.Description)
			}
		case events.CursorSequenceEnded:
			if opts.onCursorSequence != nil {
				opts.onCursorSequence(typedEvent.RunID, false)
			}
		case events.SessionClosed:
			if opts.onSessionClosed != nil {
				opts.onSessionClosed(typedEvent.Code, typedEvent.Reason)
			}
		case events.SessionFailed:
			if opts.onSessionFailed != nil {
				opts.onSessionFailed(typedEvent.Err)
			}
		case events.LogLine:
			if opts.onLog != nil {
				opts.onLog(typedEvent.Message)
			}
		}
	}
}
