package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/pgstay/internal/core/domain"
	"github.com/artpar/pgstay/internal/shell/client"
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	out    io.Writer
	errOut io.Writer

	server      string
	sessionFile string
	timeout     time.Duration
	verbose     bool

	logger *slog.Logger
	client *client.Client
	auth   *client.AuthService
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "pgstayctl",
		Short:         "Command-line client for the pgstay API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	server := os.Getenv("PGSTAY_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.server, "server", server, "pgstay API base URL (env PGSTAY_SERVER)")
	flags.StringVar(&c.sessionFile, "session-file", defaultSessionFile(), "Where the signed-in session is kept")
	flags.DurationVar(&c.timeout, "timeout", 10*time.Second, "HTTP request timeout")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.communitiesCmd(),
		c.techniciansCmd(),
	)
	return root
}

// setup builds the client and restores the saved session. From then on
// every session change is written back to the session file.
func (c *cli) setup() error {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))

	c.client = client.NewClient(client.Config{BaseURL: c.server, Timeout: c.timeout}, c.logger)
	c.auth = client.NewAuthService(c.client, c.logger)

	session, ok, err := loadSession(c.sessionFile)
	if err != nil {
		return err
	}
	if ok {
		if session.Expired(time.Now()) {
			c.logger.Debug("saved session expired", "expires_at", session.ExpiresAt)
			if err := removeSession(c.sessionFile); err != nil {
				return err
			}
		} else {
			c.auth.Restore(session)
		}
	}

	c.auth.Subscribe(sessionPersister(c.sessionFile, c.logger))
	return nil
}

func (c *cli) requireSession() error {
	if _, ok := c.auth.Session(); !ok {
		return errors.New("not signed in, run 'pgstayctl login' first")
	}
	return nil
}

func (c *cli) print(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

// =============================================================================
// Auth Commands
// =============================================================================

func (c *cli) loginCmd() *cobra.Command {
	var phone, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("PGSTAY_PASSWORD")
			}
			session, err := c.auth.Login(cmd.Context(), phone, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Signed in as %s (%s)\n", session.User.Name, session.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&password, "password", "", "Password (env PGSTAY_PASSWORD)")
	cmd.MarkFlagRequired("phone")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.auth.Logout(cmd.Context())
			fmt.Fprintln(c.out, "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			user, err := c.auth.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(user)
		},
	}
}

// =============================================================================
// Community Commands
// =============================================================================

func (c *cli) communitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "communities",
		Aliases: []string{"community", "pg"},
		Short:   "Manage PG communities",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(); err != nil {
				return err
			}
			return c.requireSession()
		},
	}

	var in client.CommunityInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a PG community",
		RunE: func(cmd *cobra.Command, args []string) error {
			community, err := c.client.CreateCommunity(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.print(community)
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "Community name")
	create.Flags().StringVar(&in.Address, "address", "", "Street address")
	create.Flags().StringVar(&in.City, "city", "", "City")

	list := &cobra.Command{
		Use:   "list",
		Short: "List PG communities",
		RunE: func(cmd *cobra.Command, args []string) error {
			communities, err := c.client.ListCommunities(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(communities)
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

// =============================================================================
// Technician Commands
// =============================================================================

func (c *cli) techniciansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "technicians",
		Aliases: []string{"technician", "tech"},
		Short:   "Manage technicians",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(); err != nil {
				return err
			}
			return c.requireSession()
		},
	}

	var in client.TechnicianInput
	var speciality string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a technician",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Speciality = domain.Speciality(speciality)
			technician, err := c.client.CreateTechnician(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.print(technician)
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "Technician name")
	create.Flags().StringVar(&in.PhoneNumber, "phone", "", "Phone number")
	create.Flags().StringVar(&speciality, "speciality", "", "One of PLUMBING, ELECTRICAL, CLEANING, MAINTENANCE, SECURITY, GARDENING, PAINTING, CARPENTRY, GENERAL")
	create.Flags().StringSliceVar(&in.CommunityIDs, "community", nil, "PG community ID (repeatable)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a technician",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			technician, err := c.client.GetTechnician(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(technician)
		},
	}

	list := &cobra.Command{
		Use:   "list <community-id>",
		Short: "List the technicians serving a PG community",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			technicians, err := c.client.ListCommunityTechnicians(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(technicians)
		},
	}

	var filter string
	available := &cobra.Command{
		Use:   "available <community-id>",
		Short: "List available technicians in a PG community",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			technicians, err := c.client.ListAvailableTechnicians(cmd.Context(), args[0], domain.Speciality(filter))
			if err != nil {
				return err
			}
			return c.print(technicians)
		},
	}
	available.Flags().StringVar(&filter, "speciality", "", "Only technicians of this speciality")

	var communities []string
	assign := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign a technician to more PG communities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			technician, err := c.client.AssignTechnician(cmd.Context(), args[0], communities)
			if err != nil {
				return err
			}
			return c.print(technician)
		},
	}
	assign.Flags().StringSliceVar(&communities, "community", nil, "PG community ID (repeatable)")

	availability := &cobra.Command{
		Use:       "availability <id> <on|off>",
		Short:     "Mark a technician available or unavailable",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch args[1] {
			case "on", "true", "yes":
				on = true
			case "off", "false", "no":
				on = false
			default:
				return fmt.Errorf("availability must be on or off, got %q", args[1])
			}
			technician, err := c.client.SetAvailability(cmd.Context(), args[0], on)
			if err != nil {
				return err
			}
			return c.print(technician)
		},
	}

	cmd.AddCommand(create, get, list, available, assign, availability)
	return cmd
}
