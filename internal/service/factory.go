package service

import (
	"courierhq.app/courier/core/config"
	"courierhq.app/courier/internal/cache"
	"courierhq.app/courier/internal/crypto"
	"courierhq.app/courier/internal/slack"
	"courierhq.app/courier/internal/store"
)

type Services struct {
	stores      *store.Stores
	slackClient *slack.Client
	names       *cache.ChannelNames
	cipher      *crypto.Cipher
	slackCfg    config.SlackConfig
}

type ServicesConfig struct {
	Stores       *store.Stores
	Slack        *slack.Client
	ChannelNames *cache.ChannelNames
	Cipher       *crypto.Cipher
	SlackCfg     config.SlackConfig
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		stores:      cfg.Stores,
		slackClient: cfg.Slack,
		names:       cfg.ChannelNames,
		cipher:      cfg.Cipher,
		slackCfg:    cfg.SlackCfg,
	}
}

func (s *Services) Tokens() TokenService {
	return NewTokenService(s.stores.Workspaces(), s.slackClient, s.cipher)
}

func (s *Services) Messages() MessageService {
	return NewMessageService(s.stores.ScheduledMessages(), s.Tokens(), s.slackClient, s.slackClient, s.names)
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Workspaces(), s.slackClient, s.Tokens(), s.cipher, s.slackCfg)
}
