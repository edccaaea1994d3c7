// Package help carries the quickstart document printed for new users.
package help

const QuickstartYAML = `# artifactor Quick Start

naming_modes:
  original: "Sanitized artifact title"
  timestamp: "ISO timestamp"
  conversation: "Sanitized title plus a short time suffix (default)"

commands:
  basic_scan: |
    artifactor scan snapshot.html

  scan_url: |
    artifactor scan "https://chat.example.com/c/conv-42"

  scan_and_download: |
    artifactor scan snapshot.html --download

  watch_snapshot: |
    artifactor watch snapshot.html

  recent_artifacts: |
    artifactor history recents

  download_history: |
    artifactor history downloads
    artifactor history downloads --failed

  configure: |
    artifactor settings show
    artifactor settings set auto_download=true naming_mode=timestamp
    artifactor settings export --out settings.yaml
    artifactor settings import settings.yaml

  manual_sync: |
    artifactor sync snapshot.html

state:
  - "Settings, recent artifacts, and download history live in SQLite"
  - "The recent-artifacts log keeps the 50 newest, deduplicated by checksum"
  - "The download history keeps the 100 newest attempts"
  - "Rescanning the same content keeps its checksum stable across runs"

backend:
  - "Configure with: artifactor settings set backend_url=http://localhost:8000"
  - "Backend health is probed in the background; auto-sync pauses while unreachable"
  - "Local detection and downloads never wait on the backend"
`
