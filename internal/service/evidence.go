package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"gorm.io/datatypes"

	"hipaa-compliance/internal/catalog"
	"hipaa-compliance/internal/evidence"
	"hipaa-compliance/internal/models"
)

// FileUpload is an evidence file as received from the client. Kind is
// optional and guessed from the question and content type when empty.
type FileUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
	Kind        catalog.EvidenceType
	Note        string
}

// ItemInput describes evidence that is not a file.
type ItemInput struct {
	Kind   catalog.EvidenceType `json:"kind"`
	Name   string               `json:"name"`
	URL    string               `json:"url"`
	Note   string               `json:"note"`
	Signer string               `json:"signer"`
}

var fileKinds = map[catalog.EvidenceType]bool{
	catalog.EvidenceDocument:    true,
	catalog.EvidenceScreenshot:  true,
	catalog.EvidenceLog:         true,
	catalog.EvidenceVendorProof: true,
}

// RequirementStatus is a resolved requirement plus what is on file for it.
type RequirementStatus struct {
	evidence.Requirement
	Provided  bool `json:"provided"`
	ItemCount int  `json:"item_count"`
}

func (s *Service) question(id string) (catalog.Question, error) {
	q, ok := s.catalog.Question(id)
	if !ok {
		return catalog.Question{}, fmt.Errorf("%w: question %q", ErrNotFound, id)
	}
	return q, nil
}

func (s *Service) EvidenceRequirements(ctx context.Context, actor Actor) ([]RequirementStatus, error) {
	org, a, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.EvidenceRecords(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[string]models.EvidenceRecord, len(recs))
	for _, r := range recs {
		byQuestion[r.QuestionID] = r
	}

	reqs := evidence.Requirements(s.catalog, a.AnswerMap())
	out := make([]RequirementStatus, 0, len(reqs))
	for _, r := range reqs {
		st := RequirementStatus{Requirement: r}
		if rec, ok := byQuestion[r.QuestionID]; ok {
			d := rec.EvidenceData.Data()
			st.Provided = d.HasAny()
			st.ItemCount = d.Count()
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Service) EvidenceRecords(ctx context.Context, actor Actor) ([]models.EvidenceRecord, error) {
	org, _, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.store.EvidenceRecords(ctx, org.ID)
}

// attach adds an item to the record of q, creating the record on first use.
func (s *Service) attach(ctx context.Context, actor Actor, orgID uint, q catalog.Question, answer string, item evidence.Item, action evidence.Action) (*models.EvidenceRecord, error) {
	rec, err := s.store.UpdateEvidence(ctx, orgID, q.ID, func(rec *models.EvidenceRecord, isNew bool) error {
		now := item.AddedAt
		trail := []evidence.AuditEntry(rec.AuditTrail)
		if isNew {
			p := q.Evidence
			rec.QuestionSequence = q.Sequence
			rec.EvidenceTypes = datatypes.JSONSlice[catalog.EvidenceType](append([]catalog.EvidenceType{}, p.Types...))
			rec.RetentionPeriod = p.RetentionPeriod
			rec.LegalWeight = p.LegalWeight
			rec.AuditTrailRequired = p.AuditTrailRequired
			rec.TimestampRequired = p.TimestampRequired
			rec.SignerRequired = p.SignerRequired
			trail = evidence.Append(trail, actor.Entry(evidence.ActionRecordCreated, now, "", ""))
		}
		rec.EvidenceRequired = evidence.IsEvidenceRequired(q, answer)

		data := rec.EvidenceData.Data()
		if err := data.Add(item); err != nil {
			return invalid("kind", "%v", err)
		}
		rec.EvidenceData = datatypes.NewJSONType(data)
		rec.EvidenceProvided = data.HasAny()
		rec.AuditTrail = evidence.Append(trail, actor.Entry(action, now, item.ID, item.Name))
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.metrics.EvidenceAdded(string(item.Kind))
	s.audit(ctx, actor, orgID, "evidence", rec.ID, string(action),
		fmt.Sprintf("%s: %s %s", q.ID, item.Kind, item.Name))
	return rec, nil
}

func (s *Service) uploadKind(q catalog.Question, up FileUpload) (catalog.EvidenceType, error) {
	kind := up.Kind
	if kind == "" {
		switch {
		case strings.HasPrefix(up.ContentType, "image/") && (len(q.Evidence.Types) == 0 || q.Evidence.Accepts(catalog.EvidenceScreenshot)):
			kind = catalog.EvidenceScreenshot
		default:
			kind = catalog.EvidenceDocument
			for _, t := range q.Evidence.Types {
				if fileKinds[t] {
					kind = t
					break
				}
			}
		}
	}
	if !fileKinds[kind] {
		return "", invalid("kind", "%q evidence is not a file", kind)
	}
	if len(q.Evidence.Types) > 0 && !q.Evidence.Accepts(kind) {
		return "", invalid("kind", "question %s does not accept %s evidence", q.ID, kind)
	}
	return kind, nil
}

// UploadEvidence validates and stores a file, then records it. Nothing is
// written when validation or rate limiting rejects the upload.
func (s *Service) UploadEvidence(ctx context.Context, actor Actor, questionID string, up FileUpload) (*models.EvidenceRecord, error) {
	org, a, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}
	q, err := s.question(questionID)
	if err != nil {
		return nil, err
	}

	if err := evidence.ValidateUpload(up.Filename, up.Size, s.maxUpload); err != nil {
		s.metrics.UploadRejected(rejectReason(err))
		return nil, invalid("file", "%v", err)
	}
	kind, err := s.uploadKind(q, up)
	if err != nil {
		s.metrics.UploadRejected("kind")
		return nil, err
	}
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, fmt.Sprintf("upload:%d", actor.UserID))
		if err != nil {
			s.log.WarnContext(ctx, "rate limiter unavailable, allowing upload", "error", err)
		} else if !ok {
			s.metrics.UploadRejected("rate_limited")
			return nil, ErrRateLimited
		}
	}

	now := s.now()
	key := evidence.ObjectPath(org.OwnerID, now, up.Filename)
	body := io.LimitReader(up.Body, up.Size)
	if err := s.objects.Put(ctx, key, body, up.Size, up.ContentType); err != nil {
		return nil, fmt.Errorf("store evidence file: %w", err)
	}

	item := evidence.Item{
		ID:          s.newID(),
		Kind:        kind,
		Name:        evidence.SanitizeFilename(up.Filename),
		Path:        key,
		Size:        up.Size,
		ContentType: up.ContentType,
		Note:        up.Note,
		AddedAt:     now.UTC(),
		AddedBy:     actor.UserID,
	}
	rec, err := s.attach(ctx, actor, org.ID, q, a.AnswerMap()[q.ID], item, evidence.ActionUploaded)
	if err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			s.log.WarnContext(ctx, "failed to remove orphaned evidence file", "path", key, "error", derr)
		}
		return nil, err
	}
	return rec, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, evidence.ErrUploadTooLarge):
		return "too_large"
	case errors.Is(err, evidence.ErrEmptyUpload):
		return "empty"
	case errors.Is(err, evidence.ErrNoFilename):
		return "no_filename"
	default:
		return "invalid"
	}
}

// AddEvidenceItem records links, attestations and narratives.
func (s *Service) AddEvidenceItem(ctx context.Context, actor Actor, questionID string, in ItemInput) (*models.EvidenceRecord, error) {
	org, a, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}
	q, err := s.question(questionID)
	if err != nil {
		return nil, err
	}

	if !in.Kind.Valid() {
		return nil, invalid("kind", "unknown evidence kind %q", in.Kind)
	}
	if fileKinds[in.Kind] {
		return nil, invalid("kind", "%s evidence must be uploaded as a file", in.Kind)
	}
	if len(q.Evidence.Types) > 0 && !q.Evidence.Accepts(in.Kind) {
		return nil, invalid("kind", "question %s does not accept %s evidence", q.ID, in.Kind)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Note = strings.TrimSpace(in.Note)
	in.Signer = strings.TrimSpace(in.Signer)
	switch in.Kind {
	case catalog.EvidenceLink:
		u, err := url.Parse(strings.TrimSpace(in.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, invalid("url", "must be an absolute http(s) URL")
		}
		in.URL = u.String()
		if in.Name == "" {
			in.Name = u.Host
		}
	case catalog.EvidenceAttestation:
		if in.Note == "" {
			return nil, invalid("note", "attestation text is required")
		}
		if q.Evidence.SignerRequired && in.Signer == "" {
			return nil, invalid("signer", "question %s requires a signer", q.ID)
		}
	case catalog.EvidenceNarrative:
		if in.Note == "" {
			return nil, invalid("note", "narrative text is required")
		}
	}

	item := evidence.Item{
		ID:      s.newID(),
		Kind:    in.Kind,
		Name:    in.Name,
		URL:     in.URL,
		Note:    in.Note,
		Signer:  in.Signer,
		AddedAt: s.now().UTC(),
		AddedBy: actor.UserID,
	}
	return s.attach(ctx, actor, org.ID, q, a.AnswerMap()[q.ID], item, evidence.ActionAdded)
}

// RemoveEvidenceItem detaches an item. The record and its trail stay.
func (s *Service) RemoveEvidenceItem(ctx context.Context, actor Actor, questionID, itemID string) (*models.EvidenceRecord, error) {
	org, _, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.question(questionID); err != nil {
		return nil, err
	}

	var removed evidence.Item
	rec, err := s.store.UpdateEvidence(ctx, org.ID, questionID, func(rec *models.EvidenceRecord, isNew bool) error {
		if isNew {
			return fmt.Errorf("%w: no evidence for question %s", ErrNotFound, questionID)
		}
		data := rec.EvidenceData.Data()
		it, ok := data.Remove(itemID)
		if !ok {
			return fmt.Errorf("%w: evidence item %s", ErrNotFound, itemID)
		}
		removed = it
		rec.EvidenceData = datatypes.NewJSONType(data)
		rec.EvidenceProvided = data.HasAny()
		rec.AuditTrail = evidence.Append(rec.AuditTrail,
			actor.Entry(evidence.ActionRemoved, s.now(), it.ID, it.Name))
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if removed.Path != "" && s.objects != nil {
		if err := s.objects.Delete(ctx, removed.Path); err != nil {
			s.log.WarnContext(ctx, "failed to delete evidence file", "path", removed.Path, "error", err)
		}
	}
	s.metrics.EvidenceRemoved(string(removed.Kind))
	s.audit(ctx, actor, org.ID, "evidence", rec.ID, string(evidence.ActionRemoved),
		fmt.Sprintf("%s: %s %s", questionID, removed.Kind, removed.Name))
	return rec, nil
}
