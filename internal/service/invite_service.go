package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/apperr"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/model"
	"github.com/lshigami/skillcheck/internal/notify"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const tokenBytes = 32

// InviteService issues single-use assessment invites and redeems their tokens.
type InviteService interface {
	// Issue reserves credits and creates a PENDING invite. When a live invite already exists for
	// the (template, candidate, application) tuple it is returned unchanged with Created false.
	Issue(ctx context.Context, companyID string, req dto.IssueInviteRequest) (*dto.InviteResponse, error)
	// Redeem is the only PENDING -> STARTED path; it starts the attempt in the same transaction.
	Redeem(ctx context.Context, candidateID string, req dto.RedeemRequest) (*dto.RedeemResponse, error)
}

type inviteService struct {
	inviteRepo   repository.InviteRepository
	templateRepo repository.TemplateRepository
	ledger       LedgerService
	attempts     AttemptService
	notifier     Notifier
	db           *gorm.DB
	clock        Clock
	ttl          time.Duration
	baseURL      string
}

func NewInviteService(
	inviteRepo repository.InviteRepository,
	templateRepo repository.TemplateRepository,
	ledger LedgerService,
	attempts AttemptService,
	notifier Notifier,
	db *gorm.DB,
	clock Clock,
	cfg *config.Config,
) InviteService {
	return &inviteService{
		inviteRepo:   inviteRepo,
		templateRepo: templateRepo,
		ledger:       ledger,
		attempts:     attempts,
		notifier:     notifier,
		db:           db,
		clock:        clock,
		ttl:          cfg.Policy.InviteTTL,
		baseURL:      strings.TrimRight(cfg.Server.PublicBaseURL, "/"),
	}
}

func (s *inviteService) Issue(ctx context.Context, companyID string, req dto.IssueInviteRequest) (*dto.InviteResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	template, err := s.templateRepo.FindByID(ctx, req.TemplateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("templateID", req.TemplateID).Msg("Issue: failed to load template")
		return nil, fmt.Errorf("find template: %w", err)
	}
	if template.CompanyID != companyID {
		return nil, ErrForbidden
	}

	key := model.InviteKey(req.TemplateID, req.CandidateID, req.ApplicationID)
	if existing, err := s.inviteRepo.FindActiveByKey(ctx, key); err == nil {
		return s.toInviteResponse(existing, false), nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find active invite: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate invite token: %w", err)
	}
	now := s.clock()
	invite := &model.Invite{
		ID:             uuid.NewString(),
		TemplateID:     template.ID,
		CompanyID:      companyID,
		CandidateID:    req.CandidateID,
		ApplicationID:  req.ApplicationID,
		CandidateEmail: req.CandidateEmail,
		Token:          token,
		ActiveKey:      &key,
		Status:         model.InvitePending,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservationID, err := s.ledger.WithTx(tx).Reserve(ctx, companyID, template.CostSchedule.ReserveCredits, invite.ID)
		if err != nil {
			return err
		}
		invite.ReservationID = reservationID
		return s.inviteRepo.WithTx(tx).Create(ctx, invite)
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			log.Warn().Str("companyID", companyID).Str("templateID", template.ID).Msg("Issue rejected: insufficient credits")
			return nil, err
		}
		// A concurrent issue for the same tuple won the active key; hand back its invite.
		if existing, findErr := s.inviteRepo.FindActiveByKey(ctx, key); findErr == nil {
			return s.toInviteResponse(existing, false), nil
		}
		log.Error().Err(err).Str("companyID", companyID).Str("templateID", template.ID).Msg("Issue failed")
		return nil, fmt.Errorf("issue invite: %w", err)
	}

	log.Info().Str("inviteID", invite.ID).Str("companyID", companyID).Str("candidateID", invite.CandidateID).Msg("Invite issued")
	resp := s.toInviteResponse(invite, true)
	if invite.CandidateEmail != "" {
		s.notifier.Enqueue(notify.InviteEmail{InviteID: invite.ID, Email: invite.CandidateEmail, URL: resp.InviteURL})
	}
	return resp, nil
}

func (s *inviteService) Redeem(ctx context.Context, candidateID string, req dto.RedeemRequest) (*dto.RedeemResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var resp *dto.RedeemResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invites := s.inviteRepo.WithTx(tx)
		invite, err := invites.FindByToken(ctx, req.Token)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenInvalid
		}
		if err != nil {
			return fmt.Errorf("find invite by token: %w", err)
		}
		if invite.CandidateID != candidateID {
			return ErrForbidden
		}

		now := s.clock()
		switch invite.Status {
		case model.InviteExpired:
			return ErrTokenExpired
		case model.InviteStarted, model.InviteCompleted:
			return ErrAlreadyConsumed
		}
		// Past expiresAt but not yet swept: reject, leave the transition to the sweeper.
		if !now.Before(invite.ExpiresAt) {
			return ErrTokenExpired
		}

		won, err := invites.Transition(ctx, invite.ID, model.InvitePending, model.InviteStarted, map[string]any{"redeemed_at": now, "updated_at": now})
		if err != nil {
			return fmt.Errorf("start invite: %w", err)
		}
		if !won {
			return ErrAlreadyConsumed
		}

		template, err := s.templateRepo.WithTx(tx).FindByID(ctx, invite.TemplateID)
		if err != nil {
			return fmt.Errorf("find template %s: %w", invite.TemplateID, err)
		}
		attempt, err := s.attempts.Start(ctx, tx, invite, template)
		if err != nil {
			return err
		}
		resp = &dto.RedeemResponse{AttemptID: attempt.ID, InviteID: invite.ID, Deadline: attempt.Deadline}
		return nil
	})
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			log.Error().Err(err).Msg("Redeem failed")
		}
		return nil, err
	}
	return resp, nil
}

func (s *inviteService) toInviteResponse(invite *model.Invite, created bool) *dto.InviteResponse {
	return &dto.InviteResponse{
		InviteID:   invite.ID,
		TemplateID: invite.TemplateID,
		InviteURL:  s.baseURL + "/assessments/redeem/" + invite.Token,
		Status:     invite.Status,
		ExpiresAt:  invite.ExpiresAt,
		Created:    created,
	}
}

// newToken returns an unguessable URL-safe token.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
