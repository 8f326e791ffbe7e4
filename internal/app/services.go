package app

import (
	"fmt"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/config"
	"github.com/ynput/ayon-jira/internal/credentials"
	"github.com/ynput/ayon-jira/internal/journal"
	"github.com/ynput/ayon-jira/internal/local"
	"github.com/ynput/ayon-jira/internal/orchestrator"
	"github.com/ynput/ayon-jira/internal/reconciler"
	"github.com/ynput/ayon-jira/internal/remote"
	"github.com/ynput/ayon-jira/internal/template"
	"github.com/ynput/ayon-jira/pkg/logging"
)

// Services holds all initialized services used by the application.
//
// Service Dependencies:
// The services are initialized in a specific order to handle dependencies:
//  1. Credentials and the two system clients
//  2. Template source and loader
//  3. Run journal
//  4. Orchestrator and its API adapter registration
type Services struct {
	// Templates is the cached template directory. Serve mode watches it.
	Templates *template.CachedSource

	// Loader resolves placeholders and parses template documents.
	Loader *template.Loader

	// Tracker is the issue tracker client.
	Tracker remote.Tracker

	// Store is the production tracking client.
	Store local.Store

	// Journal records runs. It is registered as the API journal handler.
	Journal *journal.Journal

	// Orchestrator runs templates. Its adapter is registered as the API
	// run handler.
	Orchestrator *orchestrator.Orchestrator

	// Credentials are the loaded secrets, including the HTTP endpoint token.
	Credentials *credentials.Credentials
}

// InitializeServices creates and registers all services for settings.
// Clients injected through cfg are used as-is; otherwise they are built from
// the configured servers and the credentials files.
func InitializeServices(cfg *Config, settings config.Config) (*Services, error) {
	creds, err := loadCredentials(settings)
	if err != nil {
		return nil, err
	}

	tracker := cfg.Tracker
	if tracker == nil {
		tracker, err = newTracker(settings, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to create issue tracker client: %w", err)
		}
	}

	store := cfg.Store
	if store == nil {
		store, err = newStore(settings, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to create production tracking client: %w", err)
		}
	}

	templates := template.NewCachedSource(template.NewDirSource(settings.TemplatesDir))
	loader := template.NewLoader(templates)

	description, err := reconciler.NewDescriptionRenderer(settings.Remote.DescriptionTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid remote.descriptionTemplate: %w", err)
	}

	runJournal, err := journal.Open(settings.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run journal: %w", err)
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Loader:              loader,
		Tracker:             tracker,
		Store:               store,
		DefaultPlaceholders: settings.Placeholders,
		ProjectCode:         settings.Remote.ProjectCode,
		RunTimeout:          settings.RunTimeout,
		LockDir:             settings.LockDir,
		Journal:             runJournal,
		Description:         description,
		LinkTypes: reconciler.LinkTypes{
			DependsOn: settings.Remote.LinkTypes.DependsOn,
			Unblocks:  settings.Remote.LinkTypes.Unblocks,
		},
		DedupeLinks:       settings.Remote.DedupeLinks,
		ForeignKeys:       reconciler.ForeignKeyTable(settings.Local.ForeignKeys, settings.PhaseValues()),
		TaskTypes:         settings.Local.TaskTypeCorrections,
		StrictForeignKeys: settings.Local.StrictForeignKeys,
	})
	if err != nil {
		_ = runJournal.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	orchestrator.NewAPIAdapter(orch).Register()
	api.RegisterJournalHandler(runJournal)
	logging.Debug("Services", "Registered run and journal handlers")

	return &Services{
		Templates:    templates,
		Loader:       loader,
		Tracker:      tracker,
		Store:        store,
		Journal:      runJournal,
		Orchestrator: orch,
		Credentials:  creds,
	}, nil
}

// Close releases the journal and unregisters the API handlers.
func (s *Services) Close() error {
	api.RegisterRunHandler(nil)
	api.RegisterJournalHandler(nil)
	if s.Journal == nil {
		return nil
	}
	return s.Journal.Close()
}

// loadCredentials merges the remote and local credentials files, which may
// be one and the same.
func loadCredentials(settings config.Config) (*credentials.Credentials, error) {
	remoteCreds, err := credentials.Load(settings.Remote.CredentialsFile)
	if err != nil {
		return nil, err
	}
	if settings.Local.CredentialsFile == settings.Remote.CredentialsFile {
		return remoteCreds, nil
	}

	localCreds, err := credentials.Load(settings.Local.CredentialsFile)
	if err != nil {
		return nil, err
	}
	merged := *remoteCreds
	merged.Local = localCreds.Local
	if merged.Server.Token == "" {
		merged.Server = localCreds.Server
	}
	return &merged, nil
}

func newTracker(settings config.Config, creds *credentials.Credentials) (remote.Tracker, error) {
	if settings.Remote.Server != "" {
		creds.Remote.URL = settings.Remote.Server
	}
	if err := creds.ValidateRemote(); err != nil {
		return nil, err
	}
	return remote.NewJiraClient(remote.JiraConfig{
		Server:   creds.Remote.URL,
		Username: creds.Remote.Username,
		Password: creds.Remote.Password,
		Token:    creds.Remote.Token,
		Fields: remote.FieldIDs{
			CustomID:  settings.Remote.Fields.CustomID,
			LocalTask: settings.Remote.Fields.LocalTask,
			Component: settings.Remote.Fields.Component,
		},
		IssueType:   settings.Remote.IssueType,
		EpicType:    settings.Remote.EpicType,
		MaxAttempts: settings.Remote.Retry.MaxAttempts,
		RetryDelay:  settings.Remote.Retry.BaseDelay,
	})
}

func newStore(settings config.Config, creds *credentials.Credentials) (local.Store, error) {
	if settings.Local.Server != "" {
		creds.Local.URL = settings.Local.Server
	}
	if err := creds.ValidateLocal(); err != nil {
		return nil, err
	}
	client, err := local.NewAyonClient(local.AyonConfig{
		Server: creds.Local.URL,
		APIKey: creds.Local.APIKey,
		Token:  creds.Local.Token,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
