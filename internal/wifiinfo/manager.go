package wifiinfo

import (
	"context"
	"fmt"

	"github.com/fukusenta/esp32-via-wifi/internal/nvs"

	"github.com/sirupsen/logrus"
)

// Provisioner obtains fresh client credentials from an operator, typically
// by serving a local setup page bound to the AP identity. Acquire blocks
// until the operator confirms a submission or ctx expires, and reports
// whether new credentials were committed into the manager's client record.
type Provisioner interface {
	Acquire(ctx context.Context) (bool, error)
}

// Outcome is the internal result of one configure pass. The public Configure
// surface narrows it to the boolean the boot loop consumes.
type Outcome int

const (
	// OutcomeReady means stored client credentials are usable as-is.
	OutcomeReady Outcome = iota
	// OutcomeNeedsRestart means a provisioning cycle ran this boot; the
	// caller should restart the boot sequence so a fresh restore picks up
	// whatever was stored.
	OutcomeNeedsRestart
	// OutcomeStorageFailure means the non-volatile region could not be
	// initialized or read.
	OutcomeStorageFailure
	// OutcomeInvalidInput means the caller-supplied AP identity was
	// rejected before any state changed. The accompanying error carries
	// the detail.
	OutcomeInvalidInput
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeNeedsRestart:
		return "needs_restart"
	case OutcomeStorageFailure:
		return "storage_failure"
	case OutcomeInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Manager owns the two in-memory credential records and the persistence
// protocol over the injected non-volatile store. It is driven by a single
// boot-time call sequence; it is not safe for concurrent use.
type Manager struct {
	store       nvs.Store
	provisioner Provisioner
	logger      *logrus.Logger

	apConfig     Record
	clientConfig Record
	storageReady bool
}

// NewManager creates a manager over the given store. The provisioner may be
// nil when the caller never reaches the acquisition step (e.g. read-only
// inspection commands).
func NewManager(store nvs.Store, provisioner Provisioner, logger *logrus.Logger) *Manager {
	return &Manager{
		store:       store,
		provisioner: provisioner,
		logger:      logger,
	}
}

// SetProvisioner wires the acquisition collaborator after construction. The
// portal needs the manager's AP identity, so the two sides are built first
// and linked here.
func (m *Manager) SetProvisioner(p Provisioner) {
	m.provisioner = p
}

// initStorage lazily reserves the region sized for exactly one record.
// Idempotent: once the store reports success the hardware is not touched
// again this session.
func (m *Manager) initStorage() error {
	if m.storageReady {
		return nil
	}

	if err := m.store.Init(RecordSize); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	m.storageReady = true
	return nil
}

// restoreClient reads the persisted record image and applies it to the
// in-memory client record, field by field per the blank-detection rule.
func (m *Manager) restoreClient() error {
	if err := m.initStorage(); err != nil {
		return err
	}

	image, err := m.store.ReadBytes(RecordOffset, RecordSize)
	if err != nil {
		return fmt.Errorf("failed to read client record: %w", err)
	}
	return m.clientConfig.unmarshalInto(image)
}

// storeClient persists the full in-memory client record and commits it.
func (m *Manager) storeClient() error {
	if err := m.initStorage(); err != nil {
		return err
	}

	image, err := m.clientConfig.marshal()
	if err != nil {
		return err
	}
	if err := m.store.WriteBytes(RecordOffset, image); err != nil {
		return fmt.Errorf("failed to write client record: %w", err)
	}
	if err := m.store.Commit(); err != nil {
		return fmt.Errorf("failed to commit client record: %w", err)
	}
	return nil
}

// IsClientReady reports whether the in-memory client record is usable, which
// is solely "SSID non-empty". Password length and reachability are not
// checked here.
func (m *Manager) IsClientReady() bool {
	return m.clientConfig.SSID != ""
}

// SetClientConfig replaces the in-memory client record. Oversized fields are
// rejected, never truncated. Nothing is persisted until storeClient runs.
func (m *Manager) SetClientConfig(ssid, password string) error {
	record := Record{SSID: ssid, Password: password}
	if err := record.validate(); err != nil {
		return err
	}

	m.clientConfig = record
	return nil
}

// Configure runs the boot decision protocol. It returns true when stored
// client credentials are usable and the caller may proceed, false when
// either storage failed or a provisioning cycle ran and the boot sequence
// must be restarted. A non-nil error only reports invalid AP identity input.
func (m *Manager) Configure(ctx context.Context, apSSID, apPassword string, forceReconfigure bool) (bool, error) {
	outcome, err := m.configure(ctx, apSSID, apPassword, forceReconfigure)
	if err != nil {
		return false, err
	}
	return outcome == OutcomeReady, nil
}

func (m *Manager) configure(ctx context.Context, apSSID, apPassword string, forceReconfigure bool) (Outcome, error) {
	// The AP identity is refreshed on every call, ready or not. It is never
	// persisted.
	ap := Record{SSID: apSSID, Password: apPassword}
	if err := ap.validate(); err != nil {
		return OutcomeInvalidInput, fmt.Errorf("invalid AP identity: %w", err)
	}
	m.apConfig = ap

	// Reset before restoring so a failed or partial restore cannot carry a
	// stale in-memory value forward.
	m.clientConfig = Record{}

	if err := m.restoreClient(); err != nil {
		m.logger.WithError(err).Error("Failed to restore client credentials")
		return OutcomeStorageFailure, nil
	}

	if !forceReconfigure && m.IsClientReady() {
		m.logger.WithField("ssid", m.clientConfig.SSID).Info("Stored client credentials are ready")
		return OutcomeReady, nil
	}

	m.logger.WithFields(logrus.Fields{
		"forced":  forceReconfigure,
		"ap_ssid": m.apConfig.SSID,
	}).Info("Client credentials not usable, starting provisioning")

	if m.provisioner == nil {
		m.logger.Error("No provisioner wired, cannot acquire credentials")
		return OutcomeNeedsRestart, nil
	}

	changed, err := m.provisioner.Acquire(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("Provisioning ended without a submission")
		return OutcomeNeedsRestart, nil
	}
	if changed {
		// The restart picks the stored record up through a fresh restore,
		// so a failed persist only costs another provisioning round.
		if err := m.storeClient(); err != nil {
			m.logger.WithError(err).Error("Failed to persist provisioned credentials")
		} else {
			m.logger.WithField("ssid", m.clientConfig.SSID).Info("Provisioned credentials persisted")
		}
	}
	return OutcomeNeedsRestart, nil
}

// EraseClient wipes the persisted record back to the erase sentinel and
// clears the in-memory client record. Fails when the store has no erase
// primitive.
func (m *Manager) EraseClient() error {
	if err := m.initStorage(); err != nil {
		return err
	}

	eraser, ok := m.store.(nvs.Eraser)
	if !ok {
		return fmt.Errorf("storage backend does not support erase")
	}
	if err := eraser.Erase(); err != nil {
		return fmt.Errorf("failed to erase client record: %w", err)
	}

	m.clientConfig = Record{}
	return nil
}

// Restore loads the persisted client record without running the decision
// protocol, for inspection commands.
func (m *Manager) Restore() error {
	m.clientConfig = Record{}
	return m.restoreClient()
}

// APSSID returns the SSID this device advertises as an access point.
func (m *Manager) APSSID() string { return m.apConfig.SSID }

// APPassword returns the password for the device's own access point.
func (m *Manager) APPassword() string { return m.apConfig.Password }

// SSID returns the client SSID used to join an external network.
func (m *Manager) SSID() string { return m.clientConfig.SSID }

// Password returns the client password used to join an external network.
func (m *Manager) Password() string { return m.clientConfig.Password }
