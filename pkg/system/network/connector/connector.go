package network_connector

import (
	"context"
	"fmt"
	"os"
	"time"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/metrics"
	"github.com/dogeorg/dogewifi/pkg/utils"
	"github.com/sirupsen/logrus"
)

var _ dogewifi.NetworkConnector = &Sequencer{}

type State string

const (
	StateIdle               State = "IDLE"
	StateTeardownPrior      State = "TEARDOWN_PRIOR"
	StateConfigureLink      State = "CONFIGURE_LINK"
	StateStartSupplicant    State = "START_SUPPLICANT"
	StateAssociating        State = "ASSOCIATING"
	StateAssociated         State = "ASSOCIATED"
	StateAssocTimeout       State = "ASSOC_TIMEOUT"
	StateAddressAcquisition State = "ADDRESS_ACQUISITION"
	StateDone               State = "DONE"
	StateFailed             State = "FAILED"
)

var AllStates = []State{
	StateIdle, StateTeardownPrior, StateConfigureLink, StateStartSupplicant, StateAssociating,
	StateAssociated, StateAssocTimeout, StateAddressAcquisition, StateDone, StateFailed,
}

type Step string

const (
	StepKillDHCP            Step = "kill-dhcp"
	StepTerminateSupplicant Step = "terminate-supplicant"
	StepPowerOff            Step = "power-off"
	StepLinkDown            Step = "link-down"
	StepSetESSID            Step = "set-essid"
	StepModeManaged         Step = "mode-managed"
	StepLinkUp              Step = "link-up"
	StepStartSupplicant     Step = "start-supplicant"
	StepDHCP                Step = "dhcp"
	StepResetESSID          Step = "reset-essid"
)

type StepPolicy struct {
	MustSucceed bool
}

// DefaultPolicy lists which steps abort a connection when they fail.
// Killing daemons that are not running and re-applying link settings
// fail harmlessly; the association check and DHCP decide the outcome.
// wpa_supplicant exits non-zero on warnings while still daemonising.
var DefaultPolicy = map[Step]StepPolicy{
	StepKillDHCP:            {MustSucceed: false},
	StepTerminateSupplicant: {MustSucceed: false},
	StepPowerOff:            {MustSucceed: false},
	StepLinkDown:            {MustSucceed: false},
	StepSetESSID:            {MustSucceed: false},
	StepModeManaged:         {MustSucceed: false},
	StepLinkUp:              {MustSucceed: false},
	StepStartSupplicant:     {MustSucceed: false},
	StepDHCP:                {MustSucceed: true},
	StepResetESSID:          {MustSucceed: false},
}

type Options struct {
	ConfPath    string
	LogPath     string
	CtrlDir     string
	Drivers     string
	DHCPHook    string
	Country     string
	AssocBudget utils.Budget
	Settle      time.Duration
	Policy      map[Step]StepPolicy
}

// Observer is told about every state the sequencer enters. attempt is
// the ID carried by the context, if any.
type Observer func(attempt, iface string, state State)

/* Sequencer drives wpa_supplicant, the wireless tools and udhcpc
 * through one association attempt:
 *
 *   IDLE -> TEARDOWN_PRIOR -> CONFIGURE_LINK -> [START_SUPPLICANT ->
 *   ASSOCIATING -> ASSOCIATED | ASSOC_TIMEOUT] -> ADDRESS_ACQUISITION
 *   -> DONE | FAILED
 *
 * Link state is changed in place and never rolled back, a failed
 * attempt can leave the interface half configured.
 */
type Sequencer struct {
	log      logrus.FieldLogger
	runner   utils.CommandRunner
	procs    ProcessKiller
	cache    dogewifi.CredentialCache
	clock    utils.Clock
	opts     Options
	observer Observer
}

func NewSequencer(log logrus.FieldLogger, runner utils.CommandRunner, procs ProcessKiller, cache dogewifi.CredentialCache, opts Options) *Sequencer {
	if opts.Policy == nil {
		opts.Policy = DefaultPolicy
	}
	clock := opts.AssocBudget.Clock
	if clock == nil {
		clock = utils.RealClock{}
		opts.AssocBudget.Clock = clock
	}
	return &Sequencer{
		log:    log.WithField("component", "connector"),
		runner: runner,
		procs:  procs,
		cache:  cache,
		clock:  clock,
		opts:   opts,
	}
}

func NewNetworkConnector(config dogewifi.Config, log logrus.FieldLogger, runner utils.CommandRunner, cache dogewifi.CredentialCache) *Sequencer {
	return NewSequencer(log, runner, NewProcessKiller(), cache, Options{
		ConfPath: config.Supplicant.ConfPath,
		LogPath:  config.Supplicant.LogPath,
		CtrlDir:  config.Supplicant.CtrlDir,
		Drivers:  config.Supplicant.Drivers,
		DHCPHook: config.Supplicant.DHCPHook,
		Country:  ResolveCountry(config.Supplicant.Country, os.Getenv("LANG")),
		AssocBudget: utils.Budget{
			Interval: config.Timing.AssocInterval,
			Timeout:  config.Timing.AssocTimeout,
		},
		Settle: config.Timing.DisconnectSettle,
	})
}

func (s *Sequencer) SetObserver(o Observer) {
	s.observer = o
}

func (s *Sequencer) Connect(ctx context.Context, req dogewifi.ConnectionRequest) (err error) {
	enc := req.Encryption
	if enc == "" {
		enc = dogewifi.EncryptionOff
	}

	log := s.log.WithFields(logrus.Fields{
		"interface":  req.Interface,
		"essid":      req.ESSID,
		"encryption": enc,
	})
	if id := dogewifi.AttemptID(ctx); id != "" {
		log = log.WithField("attempt", id)
	}

	started := s.clock.Now()
	defer func() {
		metrics.ObserveConnect(string(enc), s.clock.Now().Sub(started), err)
		if err != nil {
			log.WithError(err).Error("Connection failed")
			s.enter(ctx, req.Interface, StateFailed)
			return
		}
		log.Info("Connected")
		s.enter(ctx, req.Interface, StateDone)
	}()

	s.enter(ctx, req.Interface, StateIdle)

	// secrets are checked before anything touches the system
	secret := req.Secret
	if req.CustomConfigPath == "" {
		switch enc {
		case dogewifi.EncryptionOff:
		case dogewifi.EncryptionWEP:
			if secret, err = NormaliseWEPKey(secret); err != nil {
				return err
			}
		case dogewifi.EncryptionWPA:
			if err = ValidateWPAPassphrase(secret); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported encryption %q", enc)
		}
	}

	s.enter(ctx, req.Interface, StateTeardownPrior)
	if err = s.teardown(ctx, req.Interface); err != nil {
		return err
	}

	s.enter(ctx, req.Interface, StateConfigureLink)
	if err = s.configureLink(ctx, req.Interface, req.ESSID); err != nil {
		return err
	}

	confPath := req.CustomConfigPath
	if confPath == "" && enc != dogewifi.EncryptionOff {
		confPath = s.opts.ConfPath
		if err = WriteSupplicantConfig(confPath, SupplicantNetwork{
			ESSID:      req.ESSID,
			Encryption: enc,
			Key:        secret,
			CtrlDir:    s.opts.CtrlDir,
			Country:    s.opts.Country,
		}); err != nil {
			return err
		}
	}

	if confPath != "" {
		s.enter(ctx, req.Interface, StateStartSupplicant)
		log.WithField("conf", confPath).Info("Starting wpa_supplicant")
		if err = s.step(ctx, StepStartSupplicant, "wpa_supplicant", s.supplicantArgs(confPath, req.Interface)...); err != nil {
			return err
		}

		s.enter(ctx, req.Interface, StateAssociating)
		var associated bool
		if associated, err = s.waitAssociated(ctx); err != nil {
			return err
		}
		if !associated {
			s.enter(ctx, req.Interface, StateAssocTimeout)
			return fmt.Errorf("%w after %s", dogewifi.ErrAssociationTimeout, s.opts.AssocBudget.Timeout)
		}
		s.enter(ctx, req.Interface, StateAssociated)
	}

	s.enter(ctx, req.Interface, StateAddressAcquisition)
	log.Info("Starting DHCP client")
	if err = s.step(ctx, StepDHCP, "udhcpc", dhcpArgs(req.Interface, s.opts.DHCPHook)...); err != nil {
		return fmt.Errorf("%w: %w", dogewifi.ErrAddressAcquisition, err)
	}

	return nil
}

func (s *Sequencer) Disconnect(ctx context.Context, iface string, clearCache bool) error {
	metrics.IncDisconnect()
	log := s.log.WithField("interface", iface)

	if err := s.step(ctx, StepTerminateSupplicant, "wpa_cli", "-p", s.opts.CtrlDir, "terminate"); err != nil {
		return err
	}

	if clearCache && s.cache != nil {
		if s.cache.Empty() {
			log.Info("Cleared cached wireless credentials")
		}
	}

	if err := s.step(ctx, StepResetESSID, "iwconfig", iface, "essid", "off"); err != nil {
		return err
	}
	if err := s.step(ctx, StepModeManaged, "iwconfig", iface, "mode", "managed"); err != nil {
		return err
	}

	log.Info("Disconnected, letting the link settle")
	return s.clock.Sleep(ctx, s.opts.Settle)
}

func (s *Sequencer) teardown(ctx context.Context, iface string) error {
	dhcp := utils.CommandLine("udhcpc", dhcpArgs(iface, s.opts.DHCPHook)...)
	killed, err := s.procs.KillMatching(ctx, dhcp)
	if err != nil && s.opts.Policy[StepKillDHCP].MustSucceed {
		return fmt.Errorf("%w: %s: %w", dogewifi.ErrStepFailed, StepKillDHCP, err)
	}
	if killed > 0 {
		s.log.Debugf("Killed %d stale DHCP clients", killed)
	}

	// politely, through the control socket
	return s.step(ctx, StepTerminateSupplicant, "wpa_cli", "-p", s.opts.CtrlDir, "terminate")
}

func (s *Sequencer) configureLink(ctx context.Context, iface, essid string) error {
	steps := []struct {
		step Step
		args []string
	}{
		{StepPowerOff, []string{"iwconfig", iface, "power", "off"}},
		{StepLinkDown, []string{"ifconfig", iface, "down"}},
		{StepSetESSID, []string{"iwconfig", iface, "essid", essid}},
		{StepModeManaged, []string{"iwconfig", iface, "mode", "managed"}},
		{StepLinkUp, []string{"ifconfig", iface, "up"}},
	}

	for _, st := range steps {
		if st.step == StepSetESSID && essid == "" {
			continue
		}
		if err := s.step(ctx, st.step, st.args[0], st.args[1:]...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) supplicantArgs(confPath, iface string) []string {
	return []string{
		"-D", s.opts.Drivers,
		"-t", "-d",
		"-c" + confPath,
		"-i" + iface,
		"-f", s.opts.LogPath,
		"-B",
	}
}

// step runs one command under the policy table. Failures of best-effort
// steps are logged and swallowed.
func (s *Sequencer) step(ctx context.Context, step Step, name string, args ...string) error {
	_, err := s.runner.Run(ctx, name, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.opts.Policy[step].MustSucceed {
		return fmt.Errorf("%w: %s: %w", dogewifi.ErrStepFailed, step, err)
	}
	s.log.WithError(err).WithField("step", step).Debug("Ignoring failed best-effort step")
	return nil
}

func (s *Sequencer) enter(ctx context.Context, iface string, state State) {
	s.log.WithFields(logrus.Fields{"interface": iface, "state": state}).Debug("Sequencer state")

	names := make([]string, len(AllStates))
	for i, st := range AllStates {
		names[i] = string(st)
	}
	metrics.SetState(string(state), names)

	if s.observer != nil {
		s.observer(dogewifi.AttemptID(ctx), iface, state)
	}
}
