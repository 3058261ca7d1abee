package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

func newVideoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Manage video rooms, recordings and sessions",
	}
	cmd.AddCommand(newVideoRoomCmd(), newVideoRecordingCmd(), newVideoSessionCmd())
	return cmd
}

type videoRoom struct {
	ID              string `json:"id"`
	UniqueName      string `json:"unique_name"`
	MaxParticipants int    `json:"max_participants"`
	EnableRecording bool   `json:"enable_recording"`
	WebhookEventURL string `json:"webhook_event_url"`
	ActiveSessionID string `json:"active_session_id"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func newVideoRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Manage video rooms",
	}
	cmd.AddCommand(
		newVideoRoomListCmd(),
		newVideoRoomCreateCmd(),
		newVideoRoomDeleteCmd(),
		newVideoRoomTokenCmd(),
	)
	return cmd
}

var videoRoomColumns = output.Columns(
	"id", "ID",
	"name", "NAME",
	"max_participants", "MAX",
	"recording", "REC",
	"created", "CREATED",
)

func newVideoRoomListCmd() *cobra.Command {
	var limit, page int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List video rooms",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching video rooms...")
			path := withQuery("/rooms", pageQuery(limit, page))
			res, err := fetchList[videoRoom](cmd.Context(), a.client.V2(), path, "data", a.opts())
			if err != nil {
				return err
			}

			short := a.tableOnly()
			return renderList(a, res, videoRoomColumns, func(r videoRoom) output.Record {
				id := r.ID
				if short {
					id = shortID(id, 12)
				}
				return output.NewRecord(
					"id", id,
					"name", output.OrDash(r.UniqueName),
					"max_participants", strconv.Itoa(r.MaxParticipants),
					"recording", check(r.EnableRecording),
					"created", formatTime(r.CreatedAt),
				)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "number of results to return")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

type videoRoomCreateInput struct {
	UniqueName      string `json:"unique_name,omitempty"`
	MaxParticipants int    `json:"max_participants" validate:"min=1" label:"max participants"`
	EnableRecording bool   `json:"enable_recording"`
	WebhookEventURL string `json:"webhook_event_url,omitempty" validate:"omitempty,url" label:"webhook URL"`
}

var videoRoomDetailColumns = output.Columns(
	"id", "ID",
	"name", "Name",
	"max_participants", "Max participants",
	"recording", "Recording",
	"webhook", "Webhook",
	"created", "Created",
)

func newVideoRoomCreateCmd() *cobra.Command {
	var in videoRoomCreateInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a video room",
		Long: `Create a video room.

Examples:
  telnyx video room create --name standup
  telnyx video room create -n all-hands --max-participants 50 --enable-recording`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := api.ValidateStruct(in); err != nil {
				return err
			}

			a.ui.Info("Creating video room...")
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), "/rooms", in, a.opts(), &body); err != nil {
				return err
			}

			var r videoRoom
			raw, err := decodeData(body, &r)
			if err != nil {
				return err
			}
			if a.tableOnly() {
				a.ui.Success("Video room created!")
			}
			rec := output.NewRecord(
				"id", r.ID,
				"name", output.OrDash(r.UniqueName),
				"max_participants", strconv.Itoa(r.MaxParticipants),
				"recording", check(r.EnableRecording),
				"webhook", output.OrDash(r.WebhookEventURL),
				"created", formatTime(r.CreatedAt),
			)
			if err := a.renderDetail(rec, videoRoomDetailColumns, raw); err != nil {
				return err
			}
			if a.tableOnly() {
				a.linef("")
				a.linef(`Use "telnyx video room token %s" to generate a join token`, r.ID)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.UniqueName, "name", "n", "", "unique room name")
	f.IntVar(&in.MaxParticipants, "max-participants", 10, "maximum participants")
	f.BoolVar(&in.EnableRecording, "enable-recording", false, "record sessions in this room")
	f.StringVar(&in.WebhookEventURL, "webhook-url", "", "webhook URL for room events")
	return cmd
}

func newVideoRoomDeleteCmd() *cobra.Command {
	var d *destructiveFlags

	cmd := &cobra.Command{
		Use:   "delete <room-id>",
		Short: "Delete a video room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if err := api.ValidateID(id, "Room ID"); err != nil {
				return err
			}

			if d.dryRun {
				a.ui.DryRun("Would delete video room %s", id)
				return nil
			}
			if err := d.confirm(a, fmt.Sprintf("Delete video room %s? This cannot be undone", id)); err != nil {
				return err
			}

			a.ui.Info("Deleting video room %s...", id)
			if err := a.client.V2().Delete(cmd.Context(), "/rooms/"+url.PathEscape(id), a.opts(), nil); err != nil {
				return err
			}
			a.ui.Success("Video room deleted")
			return nil
		},
	}

	d = addDestructiveFlags(cmd)
	return cmd
}

type joinToken struct {
	Token                 string `json:"token"`
	TokenExpiresAt        string `json:"token_expires_at"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresAt string `json:"refresh_token_expires_at"`
}

var joinTokenColumns = output.Columns(
	"token", "Token",
	"expires", "Expires",
	"refresh_token", "Refresh token",
	"refresh_expires", "Refresh expires",
)

func newVideoRoomTokenCmd() *cobra.Command {
	var ttl int

	cmd := &cobra.Command{
		Use:   "token <room-id>",
		Short: "Generate a client join token",
		Long: `Generate a client join token. The refresh token lives twice as long.

Examples:
  telnyx video room token <room-id>
  telnyx video room token <room-id> --ttl 3600 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if err := api.ValidateID(id, "Room ID"); err != nil {
				return err
			}

			a.ui.Info("Generating join token for room %s...", id)
			payload := map[string]int{
				"token_ttl_secs":         ttl,
				"refresh_token_ttl_secs": ttl * 2,
			}
			var body json.RawMessage
			path := "/rooms/" + url.PathEscape(id) + "/actions/generate_join_client_token"
			if err := a.client.V2().Post(cmd.Context(), path, payload, a.opts(), &body); err != nil {
				return err
			}

			var tok joinToken
			raw, err := decodeData(body, &tok)
			if err != nil {
				return err
			}
			rec := output.NewRecord(
				"token", tok.Token,
				"expires", formatTime(tok.TokenExpiresAt),
				"refresh_token", output.OrDash(tok.RefreshToken),
				"refresh_expires", formatTime(tok.RefreshTokenExpiresAt),
			)
			return a.renderDetail(rec, joinTokenColumns, raw)
		},
	}

	cmd.Flags().IntVar(&ttl, "ttl", 600, "token lifetime in seconds")
	return cmd
}

type videoRecording struct {
	ID           string  `json:"id"`
	RoomID       string  `json:"room_id"`
	SessionID    string  `json:"session_id"`
	Status       string  `json:"status"`
	Type         string  `json:"type"`
	DurationSecs int     `json:"duration_secs"`
	SizeMB       float64 `json:"size_mb"`
	DownloadURL  string  `json:"download_url"`
	CompletedAt  string  `json:"completed_at"`
	CreatedAt    string  `json:"created_at"`
}

type videoRecordingFilter struct {
	RoomID    string `validate:"omitempty,telnyx_id" label:"room ID"`
	SessionID string `validate:"omitempty,telnyx_id" label:"session ID"`
	Status    string `validate:"omitempty,oneof=completed processing" label:"recording status"`
}

var videoRecordingColumns = output.Columns(
	"id", "ID",
	"room_id", "ROOM",
	"status", "STATUS",
	"duration", "DURATION",
	"size", "SIZE",
	"created", "CREATED",
)

func newVideoRecordingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recording",
		Short: "Browse room recordings",
	}
	cmd.AddCommand(newVideoRecordingListCmd())
	return cmd
}

func newVideoRecordingListCmd() *cobra.Command {
	var (
		limit, page int
		filter      videoRecordingFilter
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List room recordings",
		Long: `List room recordings.

Examples:
  telnyx video recording list
  telnyx video recording list --room-id <id> --status completed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := api.ValidateStruct(filter); err != nil {
				return err
			}

			q := pageQuery(limit, page)
			if filter.RoomID != "" {
				q.Set("filter[room_id]", filter.RoomID)
			}
			if filter.SessionID != "" {
				q.Set("filter[session_id]", filter.SessionID)
			}
			if filter.Status != "" {
				q.Set("filter[status]", filter.Status)
			}

			a.ui.Info("Fetching room recordings...")
			res, err := fetchList[videoRecording](cmd.Context(), a.client.V2(), withQuery("/room_recordings", q), "data", a.opts())
			if err != nil {
				return err
			}

			short := a.tableOnly()
			return renderList(a, res, videoRecordingColumns, func(r videoRecording) output.Record {
				id, room := r.ID, r.RoomID
				if short {
					id, room = shortID(id, 12), shortID(room, 12)
				}
				size := "-"
				if r.SizeMB > 0 {
					size = strconv.FormatFloat(r.SizeMB, 'f', -1, 64) + " MB"
				}
				return output.NewRecord(
					"id", id,
					"room_id", output.OrDash(room),
					"status", output.OrDash(r.Status),
					"duration", fmt.Sprintf("%ds", r.DurationSecs),
					"size", size,
					"created", formatTime(r.CreatedAt),
				)
			})
		},
	}

	f := cmd.Flags()
	f.IntVarP(&limit, "limit", "l", 25, "number of results to return")
	f.IntVar(&page, "page", 1, "page number")
	f.StringVar(&filter.RoomID, "room-id", "", "filter by room ID")
	f.StringVar(&filter.SessionID, "session-id", "", "filter by session ID")
	f.StringVar(&filter.Status, "status", "", "filter by status: completed, processing")
	return cmd
}

type videoSession struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	EndedAt   string `json:"ended_at"`
}

var videoSessionColumns = output.Columns(
	"id", "ID",
	"room_id", "ROOM",
	"active", "ACTIVE",
	"started", "STARTED",
	"ended", "ENDED",
)

func newVideoSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Browse room sessions",
	}
	cmd.AddCommand(newVideoSessionListCmd())
	return cmd
}

func newVideoSessionListCmd() *cobra.Command {
	var (
		limit, page int
		roomID      string
		active      bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List room sessions",
		Long: `List room sessions.

Examples:
  telnyx video session list
  telnyx video session list --room-id <id> --active`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if roomID != "" {
				if err := api.ValidateID(roomID, "Room ID"); err != nil {
					return err
				}
			}

			q := pageQuery(limit, page)
			if roomID != "" {
				q.Set("filter[room_id]", roomID)
			}
			if active {
				q.Set("filter[active]", "true")
			}

			a.ui.Info("Fetching room sessions...")
			res, err := fetchList[videoSession](cmd.Context(), a.client.V2(), withQuery("/room_sessions", q), "data", a.opts())
			if err != nil {
				return err
			}

			short := a.tableOnly()
			return renderList(a, res, videoSessionColumns, func(s videoSession) output.Record {
				id, room := s.ID, s.RoomID
				if short {
					id, room = shortID(id, 12), shortID(room, 12)
				}
				return output.NewRecord(
					"id", id,
					"room_id", output.OrDash(room),
					"active", check(s.Active),
					"started", formatTime(s.CreatedAt),
					"ended", formatTime(s.EndedAt),
				)
			})
		},
	}

	f := cmd.Flags()
	f.IntVarP(&limit, "limit", "l", 25, "number of results to return")
	f.IntVar(&page, "page", 1, "page number")
	f.StringVar(&roomID, "room-id", "", "filter by room ID")
	f.BoolVar(&active, "active", false, "only show active sessions")
	return cmd
}
