package app

import (
	"github.com/shandysiswandi/queuesend/internal/sender"
)

func (a *App) initModules() error {
	uc, err := sender.New(sender.Dependency{
		Storage:          a.storage,
		LocalDir:         a.config.GetString("source.local.dir"),
		Bucket:           a.config.GetString("source.bucket"),
		Prefix:           a.config.GetString("source.prefix"),
		Opener:           a.opener,
		Driver:           a.driver,
		DefaultSessionID: a.settings.SessionID,
		Instrument:       a.ins,
		UUID:             a.uuid,
		Clock:            a.clock,
		Validator:        a.validator,
	})
	if err != nil {
		return err
	}

	a.sender = uc

	return nil
}
