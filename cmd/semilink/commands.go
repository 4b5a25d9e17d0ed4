package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semilink/semilink/pkg/connector"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/query"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

var (
	loginEmail    string
	loginPassword string
	signupName    string

	editName       string
	editHeadline   string
	editLocation   string
	editAbout      string
	editAvatar     string
	editBackground string

	expTitle       string
	expCompany     string
	expStart       string
	expEnd         string
	expDescription string
	expLogo        string

	postImage  string
	postTags   []string
	postPolish bool

	markRead bool

	rootCmd = &cobra.Command{
		Use:                "semilink",
		Short:              "Profile sync for the SemiLink network",
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// no store or remote needed
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "semilink %s (tag %s, commit %s, built %s)\n", Version, Tag, Commit, BuildTime)
		},
	}

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE:  runLogin,
	}
	signupCmd = &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE:  runSignup,
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Run: func(cmd *cobra.Command, _ []string) {
			sl.Sessions.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		},
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the active user",
		Run:   runWhoami,
	}
	oauthURLCmd = &cobra.Command{
		Use:   "oauth-url",
		Short: "Print the GitHub sign-in URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := sl.Sessions.OAuthURL(query.ProviderGitHub)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the active user's profile",
	}
	profileShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the active profile as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, sl.State.CurrentUser())
		},
	}
	profileEditCmd = &cobra.Command{
		Use:   "edit",
		Short: "Change profile fields",
		RunE:  runProfileEdit,
	}

	experienceCmd = &cobra.Command{
		Use:   "experience",
		Short: "Manage work experience",
	}
	experienceAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Add a position to the top of the work history",
		RunE:  runExperienceAdd,
	}

	postCmd = &cobra.Command{
		Use:   "post [text...]",
		Short: "Publish a post",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPost,
	}
	likeCmd = &cobra.Command{
		Use:   "like [post_id]",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sl.Mutations.ToggleLike(cmd.Context(), args[0]) {
				return fmt.Errorf("no post with id %s", args[0])
			}
			return nil
		},
	}
	connectCmd = &cobra.Command{
		Use:   "connect [user_id]",
		Short: "Send a connection request",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if !sl.Mutations.Connect(cmd.Context(), args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), "Already pending")
			}
		},
	}
	acceptCmd = &cobra.Command{
		Use:   "accept [user_id]",
		Short: "Accept a pending invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sl.Mutations.AcceptInvitation(cmd.Context(), args[0]) {
				return fmt.Errorf("no invitation from %s", args[0])
			}
			return nil
		},
	}
	saveJobCmd = &cobra.Command{
		Use:   "save-job [job_id]",
		Short: "Save or unsave a job",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if sl.Mutations.ToggleSavedJob(cmd.Context(), args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), "Saved")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Removed from saved jobs")
			}
		},
	}
	applyCmd = &cobra.Command{
		Use:   "apply [job_id]",
		Short: "Apply to a job",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if !sl.Mutations.ApplyToJob(cmd.Context(), args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), "Already applied")
			}
		},
	}
	messageCmd = &cobra.Command{
		Use:   "message [conversation_id] [text...]",
		Short: "Send a message in a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := sl.Mutations.SendMessage(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if msg == nil {
				return fmt.Errorf("no conversation with id %s", args[0])
			}
			return nil
		},
	}
	notificationsCmd = &cobra.Command{
		Use:   "notifications",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			notifs := sl.State.Snapshot().Notifications
			if markRead {
				sl.Mutations.MarkNotificationsRead(cmd.Context())
			}
			return printJSON(cmd, notifs)
		},
	}

	insightCmd = &cobra.Command{
		Use:   "insight [topic...]",
		Short: "Draft a post about a topic",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), sl.TextGen.GenerateIndustryInsight(cmd.Context(), strings.Join(args, " ")))
		},
	}
	polishCmd = &cobra.Command{
		Use:   "polish [draft...]",
		Short: "Rewrite a draft in a more professional tone",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), sl.TextGen.PolishPostContent(cmd.Context(), strings.Join(args, " ")))
		},
	}

	flushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Send queued changes to the remote service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sl.Queue.Flush(cmd.Context())
		},
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Keep the session fresh and sync changes until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sl.Run(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the cache in memory only")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	signupCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	signupCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	signupCmd.Flags().StringVar(&signupName, "name", "", "display name")
	_ = signupCmd.MarkFlagRequired("name")

	profileEditCmd.Flags().StringVar(&editName, "name", "", "display name")
	profileEditCmd.Flags().StringVar(&editHeadline, "headline", "", "headline")
	profileEditCmd.Flags().StringVar(&editLocation, "location", "", "location")
	profileEditCmd.Flags().StringVar(&editAbout, "about", "", "about text")
	profileEditCmd.Flags().StringVar(&editAvatar, "avatar", "", "avatar URL")
	profileEditCmd.Flags().StringVar(&editBackground, "background", "", "background image URL")
	profileCmd.AddCommand(profileShowCmd, profileEditCmd)

	experienceAddCmd.Flags().StringVar(&expTitle, "title", "", "job title")
	experienceAddCmd.Flags().StringVar(&expCompany, "company", "", "company")
	experienceAddCmd.Flags().StringVar(&expStart, "start", "", "start date, e.g. Jan 2020")
	experienceAddCmd.Flags().StringVar(&expEnd, "end", types.ExperiencePresent, "end date")
	experienceAddCmd.Flags().StringVar(&expDescription, "description", "", "what you did")
	experienceAddCmd.Flags().StringVar(&expLogo, "logo", "", "company logo URL")
	experienceCmd.AddCommand(experienceAddCmd)

	postCmd.Flags().StringVar(&postImage, "image", "", "image URL")
	postCmd.Flags().StringSliceVar(&postTags, "tag", nil, "tags")
	postCmd.Flags().BoolVar(&postPolish, "polish", false, "polish the text before posting")

	notificationsCmd.Flags().BoolVar(&markRead, "mark-read", false, "mark all notifications read")

	rootCmd.AddCommand(
		versionCmd,
		loginCmd, signupCmd, logoutCmd, whoamiCmd, oauthURLCmd,
		profileCmd, experienceCmd,
		postCmd, likeCmd, connectCmd, acceptCmd, saveJobCmd, applyCmd, messageCmd, notificationsCmd,
		insightCmd, polishCmd,
		flushCmd, watchCmd,
	)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	user, err := sl.Sessions.LoginWithPassword(cmd.Context(), loginEmail, loginPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Name, user.ID)
	if sl.State.Snapshot().ShouldEditProfile {
		fmt.Fprintln(cmd.OutOrStdout(), "Your profile is incomplete, run `semilink profile edit`")
	}
	return nil
}

func runSignup(cmd *cobra.Command, _ []string) error {
	user, err := sl.Sessions.SignUp(cmd.Context(), loginEmail, loginPassword, signupName)
	if errors.Is(err, connector.ErrConfirmationPending) {
		fmt.Fprintln(cmd.OutOrStdout(), "Check your inbox to confirm your email address, then log in")
		return nil
	} else if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s (%s)\n", user.Name, user.ID)
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) {
	snap := sl.State.Snapshot()
	out := cmd.OutOrStdout()
	if snap.Auth != connector.StateAuthenticated {
		fmt.Fprintf(out, "Not logged in (showing %s)\n", snap.CurrentUser.Name)
		return
	}
	mode := "offline"
	if snap.RemoteBacked {
		mode = "remote"
	}
	fmt.Fprintf(out, "%s <%s> id=%s (%s)\n", snap.CurrentUser.Name, snap.CurrentUser.Email, snap.CurrentUser.ID, mode)
	if pending := sl.Queue.Pending(); pending > 0 {
		fmt.Fprintf(out, "%d change(s) waiting to sync\n", pending)
	}
}

func requireLogin() error {
	if sl.State.AuthState() != connector.StateAuthenticated {
		return connector.ErrNotLoggedIn
	}
	return nil
}

func runProfileEdit(cmd *cobra.Command, _ []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	user := sl.State.CurrentUser()
	flags := cmd.Flags()
	for name, apply := range map[string]func(){
		"name":       func() { user.Name = editName },
		"headline":   func() { user.Headline = editHeadline },
		"location":   func() { user.Location = editLocation },
		"about":      func() { user.About = editAbout },
		"avatar":     func() { user.AvatarURL = editAvatar },
		"background": func() { user.BackgroundImageURL = editBackground },
	} {
		if flags.Changed(name) {
			apply()
		}
	}
	if !sl.Mutations.UpdateProfile(cmd.Context(), user) {
		return fmt.Errorf("profile update rejected")
	}
	return printJSON(cmd, sl.State.CurrentUser())
}

func runExperienceAdd(cmd *cobra.Command, _ []string) error {
	if err := requireLogin(); err != nil {
		return err
	}
	ok := sl.Mutations.AddExperience(cmd.Context(), types.Experience{
		Title:       expTitle,
		Company:     expCompany,
		StartDate:   expStart,
		EndDate:     expEnd,
		Description: expDescription,
		LogoURL:     expLogo,
	})
	if !ok {
		return fmt.Errorf("title and company are required")
	}
	return nil
}

func runPost(cmd *cobra.Command, args []string) error {
	content := strings.Join(args, " ")
	if postPolish {
		content = sl.TextGen.PolishPostContent(cmd.Context(), content)
	}
	post := sl.Mutations.CreatePost(cmd.Context(), content, postImage, postTags)
	if post == nil {
		return fmt.Errorf("post is empty")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", post.ID)
	return nil
}
