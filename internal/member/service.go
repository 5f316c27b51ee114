package member

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/communitylink/membership-api/internal/model"
	"gorm.io/gorm"
)

// MemberService serves read access to the directory.
type MemberService struct {
	db        *gorm.DB
	directory *Directory
}

func NewMemberService(db *gorm.DB, directory *Directory) *MemberService {
	return &MemberService{
		db:        db,
		directory: directory,
	}
}

// Resolve finds a member by numeric ID or reference number.
func (s *MemberService) Resolve(ctx context.Context, key string) (*model.Member, error) {
	key = strings.TrimSpace(key)

	var (
		member *model.Member
		err    error
	)
	if id, parseErr := strconv.ParseUint(key, 10, 32); parseErr == nil {
		member, err = s.directory.FindByID(ctx, s.db, uint32(id))
	} else {
		member, err = s.directory.FindByReferenceNo(ctx, s.db, strings.ToUpper(key))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("회원을 찾을 수 없습니다 key=%s %w", key, ErrMemberNotFound)
		}
		return nil, fmt.Errorf("회원 조회 실패: %w", err)
	}
	return member, nil
}

func (s *MemberService) Get(ctx context.Context, key string) (*MemberResponse, error) {
	member, err := s.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	resp := NewMemberResponse(member)
	return &resp, nil
}

// Family lists the family members linked to the primary identified by key.
func (s *MemberService) Family(ctx context.Context, key string) ([]MemberResponse, error) {
	member, err := s.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	if !member.IsPrimaryMember {
		return []MemberResponse{}, nil
	}

	family, err := s.directory.ListFamilyOf(ctx, s.db, member.ReferenceNo)
	if err != nil {
		return nil, fmt.Errorf("가족 회원 조회 실패: %w", err)
	}

	resp := make([]MemberResponse, 0, len(family))
	for i := range family {
		resp = append(resp, NewMemberResponse(&family[i]))
	}
	return resp, nil
}

// GetProfile returns the portal profile of the member owning accountID. Only
// active members may use the portal.
func (s *MemberService) GetProfile(ctx context.Context, accountID string) (*ProfileResponse, error) {
	member, err := s.directory.FindByIdentityAccountID(ctx, s.db, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("회원을 찾을 수 없습니다 accountID=%s %w", accountID, ErrMemberNotFound)
		}
		return nil, fmt.Errorf("회원 조회 실패: %w", err)
	}
	if member.Status != model.StatusActive {
		return nil, fmt.Errorf("memberID=%d status=%s: %w", member.ID, member.Status, ErrMemberInactive)
	}
	return newProfileResponse(member), nil
}
