package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/NicolasHaas/pixndrive/pkg/datastore"
	"github.com/NicolasHaas/pixndrive/pkg/gallery"
	"github.com/NicolasHaas/pixndrive/pkg/model"
)

// EnvPassword supplies the login password when --password is not given.
const EnvPassword = EnvPrefix + "_PASSWORD"

func (a *app) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = a.v.GetString("password")
			}
			res, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.saveProfile(cmd.Context(), res.Value.User); err != nil {
				slog.Error("persist profile", "err", err)
			}
			a.note(res.Degraded())
			fmt.Fprintf(a.out, "Logged in as %s <%s>\n", res.Value.User.Name, res.Value.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (or set "+EnvPassword+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) filesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List uploaded files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.ListFiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}
			g := gallery.New(res.Value...)
			a.note(res.Degraded())
			if err := a.printFiles(g.Files()); err != nil {
				return err
			}
			a.printStats(g.Stats())
			return nil
		},
	}
}

func (a *app) uploadCommand() *cobra.Command {
	var allowAny bool
	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload images and videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var files []model.LocalFile
			for _, path := range args {
				f, err := model.ReadLocalFile(path)
				if err != nil {
					return err
				}
				if !allowAny && !gallery.Accepts(f.Type) {
					fmt.Fprintf(a.errOut, "skipping %s: %s is not an image or video\n", f.Name, f.Type)
					continue
				}
				files = append(files, f)
			}
			if len(files) == 0 {
				return errors.New("upload: nothing to upload")
			}

			listed, err := a.client.ListFiles(ctx)
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}
			g := gallery.New(listed.Value...)
			degraded := listed.Degraded()

			for _, f := range files {
				res, err := a.client.UploadFile(ctx, f)
				if err != nil {
					return fmt.Errorf("upload %s: %w", f.Name, err)
				}
				if res.Degraded() {
					degraded = true
				}
				g.Prepend(gallery.RecordFromUpload(f, res.Value, time.Now()))
				fmt.Fprintf(a.out, "Uploaded %s (%s) -> %s\n", f.Name, gallery.FormatFileSize(f.Size), res.Value.FileURL)
			}
			a.note(degraded)
			a.printStats(g.Stats())
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowAny, "any", false, "Upload files that are not images or videos")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token and cached profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.client.Logout(cmd.Context())
			if err := a.store.Delete(cmd.Context(), datastore.KeyUserProfile); err != nil {
				slog.Error("clear profile", "err", err)
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, ok, err := a.loadProfile(cmd.Context())
			if err != nil {
				return err
			}
			if !ok || !a.client.Session().HasToken() {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", profile.ID)
			fmt.Fprintf(w, "Name\t%s\n", profile.Name)
			fmt.Fprintf(w, "Email\t%s\n", profile.Email)
			if profile.Phone != "" {
				fmt.Fprintf(w, "Phone\t%s\n", profile.Phone)
			}
			return w.Flush()
		},
	}
}

func (a *app) saveProfile(ctx context.Context, p model.UserProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return a.store.Set(ctx, datastore.KeyUserProfile, string(data))
}

func (a *app) loadProfile(ctx context.Context) (model.UserProfile, bool, error) {
	raw, ok, err := a.store.Get(ctx, datastore.KeyUserProfile)
	if err != nil || !ok {
		return model.UserProfile{}, false, err
	}
	var p model.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		slog.Warn("cached profile is unreadable", "err", err)
		return model.UserProfile{}, false, nil
	}
	return p, true, nil
}

func (a *app) printFiles(files []model.FileRecord) error {
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files yet")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tUPLOADED\tURL")
	for _, f := range files {
		uploaded := f.UploadedAt
		if t, err := f.UploadedTime(); err == nil {
			uploaded = t.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Type, gallery.FormatFileSize(f.Size), uploaded, f.URL)
	}
	return w.Flush()
}

func (a *app) printStats(s gallery.Stats) {
	fmt.Fprintf(a.out, "Total files: %d  Storage used: %s  Last upload: %s\n", s.TotalFiles, s.StorageUsed, s.LastUpload)
}
