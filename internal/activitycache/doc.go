// Trailfund - Strava Activity and Fundraising Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailfund

/*
Package activitycache keeps a durable, incrementally refreshed copy of the
athlete's upstream activities.

# Snapshot lifecycle

The active snapshot lives at <dir>/<file> as JSON:

	{"records":[...],"last_updated":"2026-03-01T10:00:00Z","version":"trailfund.activities/v2"}

A refresh fetches every page since last_updated minus the configured overlap,
merges the batch into the previous records by ID and writes the result with
a temp-file-and-rename so a crash never leaves a torn file. Before the write,
the previous file is copied to <dir>/backups/<stem>-<generation>-<unix>.json
and, after the write, backups beyond the configured count are removed.

A failed fetch leaves the active file byte-for-byte unchanged: partial pages
are discarded, not checkpointed.

# Concurrency

Reads load an atomic pointer and never wait on a refresh. Refreshes are
serialized by a mutex; concurrent requests for the same mode share one
upstream fetch (golang.org/x/sync/singleflight).

# Recovery

On Load, an active file that fails to decode is set aside as <file>.corrupt
and replaced with the newest backup generation that decodes cleanly. With no
usable backup the manager starts empty and the first read fetches
synchronously. A file written with another format version is ignored and left
in place: the manager starts empty and the next refresh backs it up before
overwriting it.

# Shutdown

Close waits for background refreshes. Reads, refreshes and backup cleanups
return ErrClosed after it.
*/
package activitycache
