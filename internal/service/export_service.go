package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"notice-board/internal/dto"
	"notice-board/internal/model"
	"notice-board/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

// ExportService 公告导出业务接口
//
//   - ExportNotices：按日期区间导出为 Excel (.xlsx)，重要公告整行高亮
//   - Calendar：按日期区间输出 iCalendar 订阅源，每条公告为发布当天的全天事件
//
// 两者与列表接口共用同一套日期过滤规则。
type ExportService interface {
	ExportNotices(ctx context.Context, req *dto.NoticeListRequest) (*bytes.Buffer, string, error)
	Calendar(ctx context.Context, req *dto.NoticeListRequest) ([]byte, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

func (s *exportService) listNotices(ctx context.Context, req *dto.NoticeListRequest) ([]model.Notice, error) {
	filters, err := parseNoticeFilters(req)
	if err != nil {
		return nil, err
	}
	notices, err := s.repo.Notice.List(ctx, filters)
	if err != nil {
		s.logger.Error("查询公告失败", zap.Error(err))
		return nil, err
	}
	return notices, nil
}

// ═══════════════════════════════════════════════════════════
// ExportNotices 导出公告为 Excel
// ═══════════════════════════════════════════════════════════
//
// 表头：发布时间 | 标题 | 内容 | 重要 | 发布人
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportNotices(ctx context.Context, req *dto.NoticeListRequest) (*bytes.Buffer, string, error) {
	notices, err := s.listNotices(ctx, req)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "公告"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		s.logger.Error("创建工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "B", 30)
	f.SetColWidth(sheet, "C", "C", 60)
	f.SetColWidth(sheet, "D", "D", 8)
	f.SetColWidth(sheet, "E", "E", 16)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	importantStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})

	headers := []string{"发布时间", "标题", "内容", "重要", "发布人"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), h)
	}
	f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), headerStyle)

	for i, n := range notices {
		row := i + 2
		important := ""
		if n.Important {
			important = "是"
		}
		f.SetCellValue(sheet, cellName(1, row), n.CreatedAt.UTC().Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, cellName(2, row), n.Title)
		f.SetCellValue(sheet, cellName(3, row), n.Content)
		f.SetCellValue(sheet, cellName(4, row), important)
		f.SetCellValue(sheet, cellName(5, row), n.AuthorName())
		if n.Important {
			f.SetCellStyle(sheet, cellName(1, row), cellName(len(headers), row), importantStyle)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("公告_%s.xlsx", s.now().UTC().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// Calendar 公告日历订阅源
// ═══════════════════════════════════════════════════════════

func (s *exportService) Calendar(ctx context.Context, req *dto.NoticeListRequest) ([]byte, error) {
	notices, err := s.listNotices(ctx, req)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//notice-board//notices//CN")
	cal.SetName("公告")
	cal.SetXWRCalName("公告")

	stamp := s.now().UTC()
	for _, n := range notices {
		ev := cal.AddEvent(n.NoticeID + "@notice-board")
		ev.SetDtStampTime(stamp)
		ev.SetCreatedTime(n.CreatedAt)
		ev.SetAllDayStartAt(n.CreatedAt.UTC())
		ev.SetAllDayEndAt(n.CreatedAt.UTC().AddDate(0, 0, 1))
		summary := n.Title
		if n.Important {
			summary = "【重要】" + summary
		}
		ev.SetSummary(summary)
		ev.SetDescription(n.Content)
		if name := n.AuthorName(); name != "" {
			ev.SetOrganizer("noreply@notice-board", ics.WithCN(name))
		}
	}

	return []byte(cal.Serialize()), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
