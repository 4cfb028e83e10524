package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"umuganda/backend/internal/model"
)

func TestCertificateService_Ensure_NotEligible(t *testing.T) {
	tests := []struct {
		name   string
		status model.ProjectStatus
		closed bool
	}{
		{"PlannedWithCheckout", model.ProjectPlanned, true},
		{"OngoingWithCheckout", model.ProjectOngoing, true},
		{"CancelledWithCheckout", model.ProjectCancelled, true},
		{"CompletedWithoutCheckout", model.ProjectCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv()
			env.setProjectStatus(tt.status)
			if tt.closed {
				env.closedSession(testVolunteerID, testProjectID)
			}

			_, _, err := env.certificateSvc.Ensure(context.Background(), testVolunteerID, testProjectID)
			if !errors.Is(err, ErrNotEligible) {
				t.Fatalf("期望 ErrNotEligible，实际: %v", err)
			}
			if len(env.certificates.byID) != 0 {
				t.Error("不满足条件时不应写入证书")
			}
		})
	}
}

func TestCertificateService_Ensure_CreatesOnce(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	env.setProjectStatus(model.ProjectCompleted)
	env.closedSession(testVolunteerID, testProjectID)

	cert, created, err := env.certificateSvc.Ensure(ctx, testVolunteerID, testProjectID)
	if err != nil {
		t.Fatalf("Ensure 应成功: %v", err)
	}
	if !created {
		t.Error("首次应为新建")
	}
	if cert.CertificateNumber != "UMG-10-2" {
		t.Errorf("证书编号不符: %s", cert.CertificateNumber)
	}
	if cert.Snapshot[model.SnapshotRecipientName] != "Aline Uwase" ||
		cert.Snapshot[model.SnapshotProjectTitle] != "Tree Planting" ||
		cert.Snapshot[model.SnapshotLeaderName] != "Jean Mugabo" {
		t.Errorf("快照内容不符: %v", cert.Snapshot)
	}
	if _, ok := env.store.files["certificates/certificate_2_10.pdf"]; !ok {
		t.Error("证书文件应已保存")
	}

	again, created, err := env.certificateSvc.Ensure(ctx, testVolunteerID, testProjectID)
	if err != nil {
		t.Fatalf("再次 Ensure 应成功: %v", err)
	}
	if created {
		t.Error("再次调用不应新建")
	}
	if again.CertificateID != cert.CertificateID || again.FileURL != cert.FileURL {
		t.Error("应返回同一张证书")
	}
	if env.renderer.calls != 1 {
		t.Errorf("文件已存在时不应重新渲染，实际 %d 次", env.renderer.calls)
	}
}

func TestCertificateService_Ensure_RegeneratesFromSnapshot(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	env.setProjectStatus(model.ProjectCompleted)
	env.closedSession(testVolunteerID, testProjectID)

	// 首次保存失败：证书行已写入，文件缺失
	env.store.err = errors.New("磁盘已满")
	if _, _, err := env.certificateSvc.Ensure(ctx, testVolunteerID, testProjectID); err == nil {
		t.Fatal("保存失败应返回错误")
	}
	if len(env.certificates.byID) != 1 {
		t.Fatalf("证书行应已写入，实际 %d", len(env.certificates.byID))
	}

	// 签发后改名，补生成的文件仍使用签发时的快照
	env.users.users[testVolunteerID].FirstName = "Alice"
	env.projects.projects[testProjectID].Title = "Renamed"
	env.store.err = nil

	cert, created, err := env.certificateSvc.Ensure(ctx, testVolunteerID, testProjectID)
	if err != nil {
		t.Fatalf("补生成应成功: %v", err)
	}
	if created {
		t.Error("补生成不是新建")
	}
	if cert.FileURL == "" {
		t.Error("补生成后应有文件")
	}
	if env.renderer.lastDoc.RecipientName != "Aline Uwase" || env.renderer.lastDoc.ProjectTitle != "Tree Planting" {
		t.Errorf("应使用快照渲染，实际: %+v", env.renderer.lastDoc)
	}
	if !env.renderer.lastDoc.ProjectDate.Equal(time.Date(2025, 3, 29, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("项目日期不符: %v", env.renderer.lastDoc.ProjectDate)
	}
	if env.certificates.locks != 2 {
		t.Errorf("每次补生成都应在行锁下进行，实际加锁 %d 次", env.certificates.locks)
	}
}

func TestCertificateService_Ensure_UnknownProject(t *testing.T) {
	env := setupTestEnv()

	_, _, err := env.certificateSvc.Ensure(context.Background(), testVolunteerID, 999)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("期望 ErrProjectNotFound，实际: %v", err)
	}
}

func TestCertificateService_Generate(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()

	if _, err := env.certificateSvc.Generate(ctx, testVolunteerID, testProjectID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("未完成时应返回 ErrNotEligible，实际: %v", err)
	}

	env.setProjectStatus(model.ProjectCompleted)
	env.closedSession(testVolunteerID, testProjectID)

	resp, err := env.certificateSvc.Generate(ctx, testVolunteerID, testProjectID)
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	if !resp.Created || resp.Certificate.ProjectTitle != "Tree Planting" {
		t.Errorf("响应不符: %+v", resp)
	}
	if resp.Certificate.IssuedAt != "2025-03-29T08:00:00Z" {
		t.Errorf("签发时间不符: %s", resp.Certificate.IssuedAt)
	}
}

func TestCertificateService_ListMineAndGetByID(t *testing.T) {
	env := setupTestEnv()
	ctx := context.Background()
	env.setProjectStatus(model.ProjectCompleted)
	env.closedSession(testVolunteerID, testProjectID)
	cert, _, err := env.certificateSvc.Ensure(ctx, testVolunteerID, testProjectID)
	if err != nil {
		t.Fatalf("Ensure 应成功: %v", err)
	}

	mine, err := env.certificateSvc.ListMine(ctx, testVolunteerID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("应有 1 张证书，got=%d err=%v", len(mine), err)
	}
	others, _ := env.certificateSvc.ListMine(ctx, testOtherID)
	if len(others) != 0 {
		t.Errorf("他人不应看到该证书，实际 %d", len(others))
	}

	tests := []struct {
		name     string
		callerID uint
		role     model.Role
		wantErr  error
	}{
		{"Owner", testVolunteerID, model.RoleVolunteer, nil},
		{"Admin", testAdminID, model.RoleAdmin, nil},
		{"OtherVolunteer", testOtherID, model.RoleVolunteer, ErrCertificateNotFound},
		{"ProjectLeader", testLeaderID, model.RoleLeader, ErrCertificateNotFound},
		{"UnknownRole", testVolunteerID, model.Role("guest"), ErrCertificateNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.certificateSvc.GetByID(ctx, cert.CertificateID, tt.callerID, tt.role)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("期望 %v，实际: %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("期望成功，实际: %v", err)
			}
			if got.CertificateNumber != cert.CertificateNumber {
				t.Errorf("证书编号不符: %s", got.CertificateNumber)
			}
		})
	}

	if _, err := env.certificateSvc.GetByID(ctx, 999, testAdminID, model.RoleAdmin); !errors.Is(err, ErrCertificateNotFound) {
		t.Errorf("不存在的证书应返回 ErrCertificateNotFound，实际: %v", err)
	}
}
