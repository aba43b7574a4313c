package repository

import "acs/internal/apierr"

func init() {
	apierr.RegisterMapping(ErrNotFound, apierr.KindNotFound, "record not found")
	apierr.RegisterMapping(ErrTxClosed, apierr.KindInternal, "transaction already closed")
	apierr.RegisterMapping(ErrLoadFailed, apierr.KindPersistenceFailure, "failed to load graph snapshot")
	apierr.RegisterMapping(ErrCommitFailed, apierr.KindPersistenceFailure, "failed to commit transaction")
	apierr.RegisterMapping(ErrWriteFailed, apierr.KindPersistenceFailure, "failed to write mutation")
}
