package database

import (
	"context"

	"nodal/internal/models"
)

type PublishMemoParams struct {
	InsertMemoParams
	Resources []string
}

// PublishMemo inserts the memo, attaches the author's resources and journals
// the event in one transaction.
func (s *Store) PublishMemo(ctx context.Context, arg PublishMemoParams) (*models.Memo, *models.Event, error) {
	var (
		memo  *models.Memo
		event *models.Event
	)
	err := s.ExecTx(ctx, func(q *Queries) error {
		var err error
		memo, err = q.InsertMemo(ctx, arg.InsertMemoParams)
		if err != nil {
			return err
		}
		if _, err := q.AttachResources(ctx, memo.ID, memo.UserID, arg.Resources); err != nil {
			return err
		}
		event, err = q.LogEvent(ctx, memo.UserID, models.EventMemoPublished, memo)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return memo, event, nil
}

type PatchMemoParams struct {
	UpdateMemoParams
	// Resources nil keeps attachments; an empty slice detaches everything.
	Resources *[]string
}

func (s *Store) PatchMemo(ctx context.Context, arg PatchMemoParams) (*models.Memo, *models.Event, error) {
	var (
		memo  *models.Memo
		event *models.Event
	)
	err := s.ExecTx(ctx, func(q *Queries) error {
		var err error
		memo, err = q.UpdateMemo(ctx, arg.UpdateMemoParams)
		if err != nil {
			return err
		}
		if arg.Resources != nil {
			if err := q.DetachResources(ctx, memo.ID, arg.UserID); err != nil {
				return err
			}
			if _, err := q.AttachResources(ctx, memo.ID, arg.UserID, *arg.Resources); err != nil {
				return err
			}
		}
		event, err = q.LogEvent(ctx, memo.UserID, models.EventMemoPatched, memo)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return memo, event, nil
}

// DeleteMemo removes the memo (replies cascade) and releases its resources.
func (s *Store) DeleteMemo(ctx context.Context, id, userID string) (*models.Event, error) {
	var event *models.Event
	err := s.ExecTx(ctx, func(q *Queries) error {
		if err := q.RemoveMemo(ctx, id, userID); err != nil {
			return err
		}
		var err error
		event, err = q.LogEvent(ctx, userID, models.EventMemoDeleted, map[string]string{"id": id})
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Store) RecordResource(ctx context.Context, arg CreateResourceParams) (*models.Resource, *models.Event, error) {
	var (
		resource *models.Resource
		event    *models.Event
	)
	err := s.ExecTx(ctx, func(q *Queries) error {
		var err error
		resource, err = q.CreateResource(ctx, arg)
		if err != nil {
			return err
		}
		event, err = q.LogEvent(ctx, arg.UserID, models.EventResourceRecorded, resource)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return resource, event, nil
}
