package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"claims-service/internal/database/minio"
	"claims-service/internal/database/redis"
	"claims-service/internal/event"
	"claims-service/internal/importer"
	"claims-service/internal/models"
	"claims-service/internal/repository"
	"claims-service/internal/worker"

	"github.com/google/uuid"
)

const (
	sessionCacheTTL    = 10 * time.Minute
	artifactURLExpiry  = 15 * time.Minute
	sessionCachePrefix = "claims:import_session:"
)

// ErrCountryUnresolved is returned when a tenancy header does not match any
// known country.
var ErrCountryUnresolved = errors.New("country could not be resolved")

// UploadInput carries one statement/recap file pair plus its tenancy.
type UploadInput struct {
	StatFileName     string
	StatContent      []byte
	StatContentType  string
	RecapFileName    string
	RecapContent     []byte
	RecapContentType string
	CountryID        uuid.UUID
	UploadedBy       string
}

// ImportService orchestrates the import pipeline: upload, validation,
// cleaning, comparison, mapping and artifact storage. Processing runs on the
// worker pool; the upload call returns as soon as the session is queued.
type ImportService struct {
	sessions  *repository.ImportSessionRepository
	countries *repository.CountryRepository
	mapper    *MapperService

	loader     *importer.Loader
	cleaner    *importer.Cleaner
	comparator *importer.Comparator
	reports    *importer.ReportWriter

	storage   *minio.MinioClient
	cache     *redis.Client
	publisher *event.NotificationPublisher
	pool      *worker.WorkingPool

	logger *slog.Logger
}

func NewImportService(
	sessions *repository.ImportSessionRepository,
	countries *repository.CountryRepository,
	mapper *MapperService,
	storage *minio.MinioClient,
	cache *redis.Client,
	publisher *event.NotificationPublisher,
	pool *worker.WorkingPool,
) *ImportService {
	return &ImportService{
		sessions:   sessions,
		countries:  countries,
		mapper:     mapper,
		loader:     importer.NewLoader(),
		cleaner:    importer.NewCleaner(),
		comparator: importer.NewComparator(),
		reports:    importer.NewReportWriter(),
		storage:    storage,
		cache:      cache,
		publisher:  publisher,
		pool:       pool,
		logger:     slog.Default().With("component", "import_service"),
	}
}

// UploadAndStart validates the file pair, persists the uploads and queues
// the session for processing. Structural errors (unreadable format, missing
// required headers) are returned immediately and nothing is persisted.
func (s *ImportService) UploadAndStart(ctx context.Context, in UploadInput) (*models.ImportSession, error) {
	statTable, err := s.loader.LoadValidated(in.StatFileName, in.StatContent, importer.StatRequiredHeaders)
	if err != nil {
		return nil, err
	}
	recapTable, err := s.loader.LoadValidated(in.RecapFileName, in.RecapContent, importer.RecapRequiredHeaders)
	if err != nil {
		return nil, err
	}

	statFile, err := s.storeUpload(ctx, in.StatFileName, in.StatContent, in.StatContentType, models.FileTypeStat, in)
	if err != nil {
		return nil, err
	}
	recapFile, err := s.storeUpload(ctx, in.RecapFileName, in.RecapContent, in.RecapContentType, models.FileTypeRecap, in)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.CreateSession(ctx, &models.ImportSession{
		StatFileID:  statFile.ID,
		RecapFileID: recapFile.ID,
		CountryID:   in.CountryID,
		UploadedBy:  in.UploadedBy,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("import session queued",
		"session_id", session.ID,
		"country_id", in.CountryID,
		"stat_file", in.StatFileName,
		"recap_file", in.RecapFileName,
	)

	sessionID := session.ID
	statFileID := statFile.ID
	uploadedBy := in.UploadedBy
	countryID := in.CountryID
	s.pool.SubmitJob(func(jobCtx context.Context) error {
		return s.processSession(jobCtx, sessionID, statFileID, countryID, uploadedBy, statTable, recapTable)
	})

	return session, nil
}

func (s *ImportService) storeUpload(ctx context.Context, fileName string, content []byte, contentType string, fileType models.FileType, in UploadInput) (*models.ImportFile, error) {
	key := fmt.Sprintf("%s/%s/%s", in.CountryID, uuid.New(), fileName)
	if err := s.storage.UploadBytes(ctx, minio.Storage.Uploads, key, content, contentType); err != nil {
		return nil, err
	}

	return s.sessions.CreateFile(ctx, &models.ImportFile{
		FileName:    fileName,
		FileType:    fileType,
		StorageKey:  key,
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
		UploadedBy:  in.UploadedBy,
		CountryID:   in.CountryID,
	})
}

// processSession runs the pipeline for one queued session. Row-level errors
// accumulate; pipeline-level failures mark the session as failed. There is
// no retry.
func (s *ImportService) processSession(ctx context.Context, sessionID, statFileID, countryID uuid.UUID, uploadedBy string, statTable, recapTable *importer.Table) error {
	runLog := importer.NewRunLog(sessionID.String())

	if err := s.sessions.UpdateStatus(ctx, sessionID, models.ImportStatusProcessing, nil); err != nil {
		return err
	}
	s.invalidateSessionCache(ctx, sessionID)

	if err := s.runPipeline(ctx, sessionID, statFileID, countryID, uploadedBy, statTable, recapTable, runLog); err != nil {
		reason := err.Error()
		runLog.Warn("import failed", "reason", reason)
		s.uploadRunLog(ctx, sessionID, runLog)

		if updateErr := s.sessions.UpdateStatus(ctx, sessionID, models.ImportStatusError, &reason); updateErr != nil {
			s.logger.Error("failed to mark session failed", "session_id", sessionID, "error", updateErr)
		}
		s.invalidateSessionCache(ctx, sessionID)

		if s.publisher != nil {
			_ = s.publisher.NotifyImportFailed(ctx, uploadedBy, sessionID.String(), reason)
		}
		return err
	}
	return nil
}

func (s *ImportService) runPipeline(ctx context.Context, sessionID, statFileID, countryID uuid.UUID, uploadedBy string, statTable, recapTable *importer.Table, runLog *importer.RunLog) error {
	runLog.Info("pipeline started", "stat_rows", len(statTable.Rows), "recap_rows", len(recapTable.Rows))

	s.cleaner.CleanStat(statTable)
	s.cleaner.CleanRecap(recapTable)
	runLog.Info("cleaning finished", "stat_rows", len(statTable.Rows), "recap_rows", len(recapTable.Rows))

	common, err := s.comparator.CommonRange(statTable, recapTable)
	if err != nil {
		return err
	}

	comparison, err := s.comparator.Compare(statTable, recapTable, common)
	if err != nil {
		return err
	}
	nonConforming, conforming := s.comparator.SplitConformity(comparison)
	runLog.Info("comparison finished",
		"matched", len(comparison.Rows),
		"conforming", len(conforming.Rows),
		"non_conforming", len(nonConforming.Rows),
	)

	var reportKey *string
	if len(nonConforming.Rows) > 0 {
		content, reportErr := s.reports.Write(nonConforming, statTable, recapTable)
		if reportErr != nil {
			runLog.Warn("error report rendering failed", "error", reportErr.Error())
		} else {
			key := fmt.Sprintf("%s/%s", sessionID, importer.ReportFileName(time.Now().UTC()))
			if uploadErr := s.storage.UploadBytes(ctx, minio.Storage.ErrorReports, key, content,
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); uploadErr != nil {
				runLog.Warn("error report upload failed", "error", uploadErr.Error())
			} else {
				reportKey = &key
			}
		}
	}

	if err := s.sessions.UpdateComparison(ctx, &models.ImportSession{
		ID:                 sessionID,
		StartDate:          &common.Min,
		EndDate:            &common.Max,
		MatchedCount:       len(comparison.Rows),
		ConformingCount:    len(conforming.Rows),
		NonConformingCount: len(nonConforming.Rows),
		ErrorReportKey:     reportKey,
	}); err != nil {
		return err
	}

	detail := s.comparator.ConformingDetailRows(statTable, common, conforming)
	mapResult, err := s.mapper.MapTable(ctx, detail, MapContext{
		SessionID: sessionID,
		FileID:    statFileID,
		CountryID: countryID,
		RunLog:    runLog,
	})
	if err != nil {
		return err
	}

	logKey := s.uploadRunLog(ctx, sessionID, runLog)
	if err := s.sessions.UpdateMappingResults(ctx, &models.ImportSession{
		ID:                    sessionID,
		InsuredCreatedCount:   mapResult.InsuredCreated,
		ClaimsCreatedCount:    mapResult.ClaimsCreated,
		RowErrorCount:         len(mapResult.Errors),
		TotalClaimedAmount:    mapResult.TotalClaimed,
		TotalReimbursedAmount: mapResult.TotalReimbursed,
		LogFileKey:            logKey,
	}); err != nil {
		return err
	}

	finalStatus := models.ImportStatusDone
	if len(mapResult.Errors) > 0 {
		finalStatus = models.ImportStatusDoneWithErrors
	}
	if err := s.sessions.UpdateStatus(ctx, sessionID, finalStatus, nil); err != nil {
		return err
	}
	s.invalidateSessionCache(ctx, sessionID)

	s.logger.Info("import session finished",
		"session_id", sessionID,
		"status", finalStatus,
		"claims_created", mapResult.ClaimsCreated,
		"row_errors", len(mapResult.Errors),
	)

	if s.publisher != nil {
		_ = s.publisher.NotifyImportFinished(ctx, uploadedBy, sessionID.String(), string(finalStatus),
			mapResult.ClaimsCreated, len(mapResult.Errors))
	}
	return nil
}

func (s *ImportService) uploadRunLog(ctx context.Context, sessionID uuid.UUID, runLog *importer.RunLog) *string {
	key := fmt.Sprintf("%s/import_%s.log", sessionID, time.Now().UTC().Format("20060102_150405"))
	if err := s.storage.UploadBytes(ctx, minio.Storage.ImportLogs, key, runLog.Bytes(), "text/plain"); err != nil {
		s.logger.Error("failed to upload run log", "session_id", sessionID, "error", err)
		return nil
	}
	return &key
}

// GetSession returns a session by ID, serving terminal sessions from the
// Redis cache.
func (s *ImportService) GetSession(ctx context.Context, id uuid.UUID) (*models.ImportSession, error) {
	cacheKey := sessionCachePrefix + id.String()

	if s.cache != nil {
		if cached, err := s.cache.GetJSON(ctx, cacheKey); err == nil && cached != nil {
			var session models.ImportSession
			if err := json.Unmarshal(cached, &session); err == nil {
				return &session, nil
			}
		}
	}

	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && session.Status.IsTerminal() {
		if payload, err := json.Marshal(session); err == nil {
			_ = s.cache.SetJSON(ctx, cacheKey, payload, sessionCacheTTL)
		}
	}
	return session, nil
}

// ListSessions returns a country's sessions, newest first.
func (s *ImportService) ListSessions(ctx context.Context, countryID uuid.UUID, status *models.ImportStatus, limit, offset int) ([]models.ImportSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessions.ListSessions(ctx, countryID, status, limit, offset)
}

// ErrorReportURL presigns the non-conformity workbook of a session.
func (s *ImportService) ErrorReportURL(ctx context.Context, id uuid.UUID) (string, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	if session.ErrorReportKey == nil {
		return "", fmt.Errorf("session %s has no error report", id)
	}
	return s.storage.GetPresignedURL(ctx, minio.Storage.ErrorReports, *session.ErrorReportKey, artifactURLExpiry)
}

// LogFileURL presigns the run log of a session.
func (s *ImportService) LogFileURL(ctx context.Context, id uuid.UUID) (string, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	if session.LogFileKey == nil {
		return "", fmt.Errorf("session %s has no log file", id)
	}
	return s.storage.GetPresignedURL(ctx, minio.Storage.ImportLogs, *session.LogFileKey, artifactURLExpiry)
}

// ResolveCountry maps a tenancy header value to a known country.
func (s *ImportService) ResolveCountry(ctx context.Context, name string) (*models.Country, error) {
	country, err := s.countries.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if country == nil {
		return nil, fmt.Errorf("unknown country %q: %w", name, ErrCountryUnresolved)
	}
	return country, nil
}

func (s *ImportService) invalidateSessionCache(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, sessionCachePrefix+id.String())
}
