package cmd

import (
	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/conductor"
	network_connector "github.com/dogeorg/dogewifi/pkg/system/network/connector"
	"github.com/dogeorg/dogewifi/pkg/web"
	"github.com/spf13/cobra"
)

var (
	serveBind    string
	servePort    int
	serveVerbose bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST and websocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRoot(); err != nil {
			return err
		}
		if cmd.Flags().Changed("bind") {
			config.Server.Bind = serveBind
		}
		if cmd.Flags().Changed("port") {
			config.Server.Port = servePort
		}
		if serveVerbose {
			config.Server.Verbose = true
		}

		nm := networkManager()

		/* ----------------------------------------------------------------------- */
		// Setup our external APIs. REST, Websockets

		wsh := web.NewWSRelay(logger)
		nm.SetStateObserver(func(attempt, iface string, state network_connector.State) {
			if attempt == "" {
				attempt = "internal"
			}
			wsh.Relay(dogewifi.Change{
				ID:     attempt,
				Type:   "state",
				Update: dogewifi.StateUpdate{Interface: iface, State: string(state)},
			})
		})
		rest := web.RESTAPI(config, logger, nm, wsh)

		/* ----------------------------------------------------------------------- */
		// Create a conductor to manage all the above services startup/shutdown

		opts := []conductor.Option{
			conductor.HookSignals(),
			conductor.Logger(logger),
		}
		if config.Server.Verbose {
			opts = append(opts, conductor.Noisy())
		}
		c := conductor.NewConductor(opts...)
		c.Service("WSock Relay", wsh)
		c.Service("REST API", rest)
		<-c.Start()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "Address to listen on (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Log service startup and shutdown")
	rootCmd.AddCommand(serveCmd)
}
