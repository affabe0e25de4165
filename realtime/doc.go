// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime is the WebSocket client channel for live polls.

# Hub

Hub implements poll.Channel. Each connected observer has a buffered
outbound queue; BroadcastAll and SendTo never block, and a full queue
drops the frame for that observer only:

	hub := realtime.NewHub()
	svc := poll.NewService(poll.Config{Store: st, Channel: hub})

# Connections

Handler serves GET /ws. Every frame is JSON {"event": ..., "data": ...}.

Inbound:

	student:join        → poll:state for the active poll (if any)
	student:vote        {pollId, optionIndex, studentName, sessionId}
	teacher:start-poll  {pollId, adminKey}
	teacher:stop-poll   {pollId, adminKey}

Replies to the sender only:

	vote:success  {success, poll}
	vote:error    {message}
	error         {message}

Broadcasts from the engine: poll:started, poll:update, poll:ended.
*/
package realtime
