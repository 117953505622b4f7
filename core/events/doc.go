// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - assistant_content.*
//   - assistant_speech.*
//   - assistant_playback.*
//   - tool_call.*
//   - cursor.*
//   - log.*
//
// Semantics used across the package:
//
//   - Frame: binary audio chunk payload.
//   - Segment: append-only text piece emitted in stream order.
//   - Final: terminal state for the current turn.
//
// session events
//
//   - SessionOpened (session.opened): transport confirmed open.
//   - SessionConfigured (session.configured): server acknowledged setup.
//   - SessionClosed (session.closed): transport closed, with code and reason.
//   - SessionFailed (session.failed): terminal transport or protocol error.
//
// assistant_content events
//
//   - ContentSegment (assistant_content.segment): streamed model text piece.
//   - ContentFinal (assistant_content.final): end of the model turn.
//
// assistant_speech / assistant_playback events
//
//   - SpeechFrame (assistant_speech.frame): raw PCM chunk from the server.
//   - PlaybackInterrupted (assistant_playback.interrupted): server discarded
//     in-flight generation; buffered playback must be flushed.
//   - PlaybackVolume (assistant_playback.volume): periodic output level.
//
// tool_call events
//
//   - ToolCallRequested (tool_call.requested): server asks the client to run
//     one or more function calls.
//   - ToolCallCancelled (tool_call.cancelled): previously requested calls are
//     withdrawn.
//
// cursor events
//
//   - CursorSequenceStarted (cursor.sequence_started): a choreography run was
//     accepted and is executing.
//   - CursorProposed (cursor.proposed): a grounded cursor position proposal.
//   - CursorSequenceEnded (cursor.sequence_ended): the run finished or was
//     cancelled.
//
// log events
//
//   - LogLine (log.line): informational line surfaced by the protocol layer.
package events
