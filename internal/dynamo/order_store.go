package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/orrn/printdesk/internal/core"
	"github.com/orrn/printdesk/internal/db"
)

const defaultOrdersTableName = "orders"

type orderItem struct {
	ID                  string   `dynamodbav:"id"`
	OrderNumber         string   `dynamodbav:"order_number"`
	PaymentStatus       string   `dynamodbav:"payment_status"`
	FileURL             string   `dynamodbav:"file_url,omitempty"`
	FileURLs            []string `dynamodbav:"file_urls,omitempty"`
	PrintingOptions     string   `dynamodbav:"printing_options_json"`
	PrintStatus         string   `dynamodbav:"print_status,omitempty"`
	PrintAttempt        int      `dynamodbav:"print_attempt"`
	MaxPrintAttempts    int      `dynamodbav:"max_print_attempts"`
	PrintError          string   `dynamodbav:"print_error,omitempty"`
	PrinterName         string   `dynamodbav:"printer_name,omitempty"`
	PrintStartedAt      *int64   `dynamodbav:"print_started_at,omitempty"`
	PrintCompletedAt    *int64   `dynamodbav:"print_completed_at,omitempty"`
	PrintingBy          string   `dynamodbav:"printing_by,omitempty"`
	PrintingHeartbeatAt *int64   `dynamodbav:"printing_heartbeat_at,omitempty"`
	PrintSegments       string   `dynamodbav:"print_segments_json,omitempty"`
	PrintQueuedAt       *int64   `dynamodbav:"print_queued_at,omitempty"`
	Version             int64    `dynamodbav:"version"`
	CreatedAt           int64    `dynamodbav:"created_at"`
	UpdatedAt           int64    `dynamodbav:"updated_at"`
}

// OrderStore keeps order documents in a DynamoDB table keyed by id.
//
// Table requirements:
//   - PK: id (string)
//
// Print state changes are conditional updates on the version attribute, so
// several printdesk instances can share one table.
type OrderStore struct {
	ddb       API
	tableName string
	now       func() time.Time
}

var _ core.OrderStore = (*OrderStore)(nil)

func NewOrderStore(ddb API, tableName string) *OrderStore {
	if tableName == "" {
		tableName = getenvDefault("ORDERS_TABLE", defaultOrdersTableName)
	}
	return &OrderStore{
		ddb:       ddb,
		tableName: tableName,
		now:       time.Now,
	}
}

func (s *OrderStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *OrderStore) GetOrder(ctx context.Context, id string) (*db.Order, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, db.ErrNotFound
	}
	return decodeOrder(out.Item)
}

// UpsertOrder writes the shop-owned fields of order. Print state already on
// the item is left alone.
func (s *OrderStore) UpsertOrder(ctx context.Context, order *db.Order) error {
	err := s.upsertOrder(ctx, order, true)
	var cfe *types.ConditionalCheckFailedException
	if errors.As(err, &cfe) {
		// The order is already in the print flow; its files and segments stay.
		err = s.upsertOrder(ctx, order, false)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

// upsertOrder writes the shop-owned attributes. With withFiles the write also
// replaces files and segments, guarded on the item having no print status.
func (s *OrderStore) upsertOrder(ctx context.Context, order *db.Order, withFiles bool) error {
	options, err := json.Marshal(order.PrintingOptions)
	if err != nil {
		return fmt.Errorf("failed to encode printing options: %w", err)
	}
	now := s.now().UnixMilli()

	u := newUpdate()
	u.set("order_number", str(order.OrderNumber))
	u.set("payment_status", str(order.PaymentStatus))
	u.set("printing_options_json", str(string(options)))
	if order.MaxPrintAttempts > 0 {
		u.set("max_print_attempts", num(int64(order.MaxPrintAttempts)))
	} else {
		u.setExpr("max_print_attempts", "if_not_exists(#max_print_attempts, :default_attempts)")
		u.values[":default_attempts"] = num(db.DefaultMaxPrintAttempts)
	}

	var condition *string
	if withFiles {
		u.setOrRemove("file_url", order.FileURL)
		if len(order.FileURLs) > 0 {
			u.set("file_urls", &types.AttributeValueMemberL{Value: strList(order.FileURLs)})
		} else {
			u.remove("file_urls")
		}
		if err := u.setSegments(order.PrintSegments); err != nil {
			return err
		}
		if order.PrintStatus != "" {
			u.setExpr("print_status", "if_not_exists(#print_status, :initial_status)")
			u.values[":initial_status"] = str(order.PrintStatus)
		}
		u.names["#print_status"] = "print_status"
		condition = aws.String("attribute_not_exists(#print_status)")
	}
	u.setExpr("print_attempt", "if_not_exists(#print_attempt, :zero)")
	u.setExpr("version", "if_not_exists(#version, :zero) + :one")
	u.setExpr("created_at", "if_not_exists(#created_at, :now)")
	u.set("updated_at", num(now))
	u.values[":zero"] = num(0)
	u.values[":one"] = num(1)
	u.values[":now"] = num(now)

	_, err = s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.key(order.ID),
		UpdateExpression:          aws.String(u.expression()),
		ConditionExpression:       condition,
		ExpressionAttributeNames:  u.names,
		ExpressionAttributeValues: u.values,
	})
	return err
}

// ListOrders scans the table and applies filter client side. The order
// volume of a single shop keeps a full scan acceptable.
func (s *OrderStore) ListOrders(ctx context.Context, filter db.OrderFilter) ([]*db.Order, error) {
	paginator := dynamodb.NewScanPaginator(s.ddb, &dynamodb.ScanInput{
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
	})

	var orders []*db.Order
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}
		for _, raw := range page.Items {
			order, err := decodeOrder(raw)
			if err != nil {
				return nil, err
			}
			if matches(order, filter) {
				orders = append(orders, order)
			}
		}
	}

	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.NewestFirst {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if filter.NewestFirst {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	limit := 500
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func matches(o *db.Order, filter db.OrderFilter) bool {
	switch filter.PrintStatus {
	case "":
	case "none":
		if o.PrintStatus != "" {
			return false
		}
	default:
		if o.PrintStatus != filter.PrintStatus {
			return false
		}
	}
	if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
		return false
	}
	if filter.Escalated != nil {
		escalated := o.PrintAttempt >= o.MaxPrintAttempts
		if escalated != *filter.Escalated {
			return false
		}
	}
	return true
}

// UpdatePrintState persists the print fields of order if the stored version
// still equals expectedVersion. On success order.Version is advanced.
func (s *OrderStore) UpdatePrintState(ctx context.Context, order *db.Order, expectedVersion int64) error {
	now := s.now()

	u := newUpdate()
	u.setOrRemove("print_status", order.PrintStatus)
	u.set("print_attempt", num(int64(order.PrintAttempt)))
	u.set("max_print_attempts", num(int64(order.MaxPrintAttempts)))
	u.setOrRemove("print_error", order.PrintError)
	u.setOrRemove("printer_name", order.PrinterName)
	u.setTime("print_started_at", order.PrintStartedAt)
	u.setTime("print_completed_at", order.PrintCompletedAt)
	u.setOrRemove("printing_by", order.PrintingBy)
	u.setTime("printing_heartbeat_at", order.PrintingHeartbeatAt)
	u.setTime("print_queued_at", order.PrintQueuedAt)
	if err := u.setSegments(order.PrintSegments); err != nil {
		return err
	}
	u.setExpr("version", "#version + :one")
	u.set("updated_at", num(now.UnixMilli()))
	u.values[":one"] = num(1)
	u.values[":expected"] = num(expectedVersion)
	u.names["#id"] = "id"

	_, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(s.tableName),
		Key:                                 s.key(order.ID),
		UpdateExpression:                    aws.String(u.expression()),
		ConditionExpression:                 aws.String("attribute_exists(#id) AND #version = :expected"),
		ExpressionAttributeNames:            u.names,
		ExpressionAttributeValues:           u.values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if cerr := conditionError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to update order print state: %w", err)
	}

	order.Version = expectedVersion + 1
	order.UpdatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	return nil
}

const claimCondition = "attribute_exists(#id) AND #print_attempt < #max_print_attempts AND (" +
	"(#print_status = :pending AND attribute_not_exists(#printing_by)) OR " +
	"(#print_status = :printing AND (attribute_not_exists(#printing_heartbeat_at) OR #printing_heartbeat_at < :stale_before)))"

// ClaimLease atomically hands the print lease on an order to workerID.
// It returns db.ErrVersionConflict when the order is not claimable.
func (s *OrderStore) ClaimLease(ctx context.Context, id, workerID, printerName string, now, staleBefore time.Time) (*db.Order, error) {
	at := num(now.UnixMilli())

	u := newUpdate()
	u.set("print_status", str(core.StatusPrinting))
	u.set("printing_by", str(workerID))
	u.setOrRemove("printer_name", printerName)
	u.set("print_started_at", at)
	u.set("printing_heartbeat_at", at)
	u.remove("print_completed_at")
	u.setExpr("version", "#version + :one")
	u.set("updated_at", at)
	u.values[":one"] = num(1)
	u.values[":pending"] = str(core.StatusPending)
	u.values[":printing"] = str(core.StatusPrinting)
	u.values[":stale_before"] = num(staleBefore.UnixMilli())
	u.names["#id"] = "id"
	u.names["#print_attempt"] = "print_attempt"
	u.names["#max_print_attempts"] = "max_print_attempts"

	out, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(s.tableName),
		Key:                                 s.key(id),
		UpdateExpression:                    aws.String(u.expression()),
		ConditionExpression:                 aws.String(claimCondition),
		ExpressionAttributeNames:            u.names,
		ExpressionAttributeValues:           u.values,
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if cerr := conditionError(err); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to claim lease: %w", err)
	}
	return decodeOrder(out.Attributes)
}

func (s *OrderStore) TouchHeartbeat(ctx context.Context, id, workerID string, now time.Time) error {
	at := num(now.UnixMilli())

	u := newUpdate()
	u.set("printing_heartbeat_at", at)
	u.setExpr("version", "#version + :one")
	u.set("updated_at", at)
	u.values[":one"] = num(1)
	u.values[":printing"] = str(core.StatusPrinting)
	u.values[":worker"] = str(workerID)
	u.names["#id"] = "id"
	u.names["#print_status"] = "print_status"
	u.names["#printing_by"] = "printing_by"

	_, err := s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(s.tableName),
		Key:                                 s.key(id),
		UpdateExpression:                    aws.String(u.expression()),
		ConditionExpression:                 aws.String("attribute_exists(#id) AND #print_status = :printing AND #printing_by = :worker"),
		ExpressionAttributeNames:            u.names,
		ExpressionAttributeValues:           u.values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if cerr := conditionError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to refresh heartbeat: %w", err)
	}
	return nil
}

// conditionError maps a failed condition to ErrNotFound when the item does
// not exist and to ErrVersionConflict otherwise. It returns nil for any
// other error.
func conditionError(err error) error {
	var cfe *types.ConditionalCheckFailedException
	if !errors.As(err, &cfe) {
		return nil
	}
	if len(cfe.Item) == 0 {
		return db.ErrNotFound
	}
	return db.ErrVersionConflict
}

func decodeOrder(raw map[string]types.AttributeValue) (*db.Order, error) {
	var it orderItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return fromOrderItem(it)
}

func toOrderItem(o *db.Order) (orderItem, error) {
	options, err := json.Marshal(o.PrintingOptions)
	if err != nil {
		return orderItem{}, fmt.Errorf("failed to encode printing options: %w", err)
	}
	var segments string
	if len(o.PrintSegments) > 0 {
		b, err := json.Marshal(o.PrintSegments)
		if err != nil {
			return orderItem{}, fmt.Errorf("failed to encode segments: %w", err)
		}
		segments = string(b)
	}

	return orderItem{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		PaymentStatus:       o.PaymentStatus,
		FileURL:             o.FileURL,
		FileURLs:            o.FileURLs,
		PrintingOptions:     string(options),
		PrintStatus:         o.PrintStatus,
		PrintAttempt:        o.PrintAttempt,
		MaxPrintAttempts:    o.MaxPrintAttempts,
		PrintError:          o.PrintError,
		PrinterName:         o.PrinterName,
		PrintStartedAt:      millis(o.PrintStartedAt),
		PrintCompletedAt:    millis(o.PrintCompletedAt),
		PrintingBy:          o.PrintingBy,
		PrintingHeartbeatAt: millis(o.PrintingHeartbeatAt),
		PrintSegments:       segments,
		PrintQueuedAt:       millis(o.PrintQueuedAt),
		Version:             o.Version,
		CreatedAt:           o.CreatedAt.UnixMilli(),
		UpdatedAt:           o.UpdatedAt.UnixMilli(),
	}, nil
}

func fromOrderItem(it orderItem) (*db.Order, error) {
	o := &db.Order{
		ID:                  it.ID,
		OrderNumber:         it.OrderNumber,
		PaymentStatus:       it.PaymentStatus,
		FileURL:             it.FileURL,
		FileURLs:            it.FileURLs,
		PrintStatus:         it.PrintStatus,
		PrintAttempt:        it.PrintAttempt,
		MaxPrintAttempts:    it.MaxPrintAttempts,
		PrintError:          it.PrintError,
		PrinterName:         it.PrinterName,
		PrintStartedAt:      fromMillis(it.PrintStartedAt),
		PrintCompletedAt:    fromMillis(it.PrintCompletedAt),
		PrintingBy:          it.PrintingBy,
		PrintingHeartbeatAt: fromMillis(it.PrintingHeartbeatAt),
		PrintQueuedAt:       fromMillis(it.PrintQueuedAt),
		Version:             it.Version,
		CreatedAt:           time.UnixMilli(it.CreatedAt).UTC(),
		UpdatedAt:           time.UnixMilli(it.UpdatedAt).UTC(),
	}
	if it.PrintingOptions != "" {
		if err := json.Unmarshal([]byte(it.PrintingOptions), &o.PrintingOptions); err != nil {
			return nil, fmt.Errorf("failed to decode printing options of order %s: %w", it.ID, err)
		}
	}
	if it.PrintSegments != "" {
		if err := json.Unmarshal([]byte(it.PrintSegments), &o.PrintSegments); err != nil {
			return nil, fmt.Errorf("failed to decode segments of order %s: %w", it.ID, err)
		}
	}
	return o, nil
}

func millis(t *time.Time) *int64 {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UnixMilli()
	return &v
}

func fromMillis(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.UnixMilli(*v).UTC()
	return &t
}

// update accumulates a SET/REMOVE update expression.
type update struct {
	sets    []string
	removes []string
	names   map[string]string
	values  map[string]types.AttributeValue
}

func newUpdate() *update {
	return &update{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}
}

func (u *update) set(attr string, v types.AttributeValue) {
	u.names["#"+attr] = attr
	u.values[":"+attr] = v
	u.sets = append(u.sets, "#"+attr+" = :"+attr)
}

func (u *update) setExpr(attr, expr string) {
	u.names["#"+attr] = attr
	u.sets = append(u.sets, "#"+attr+" = "+expr)
}

func (u *update) remove(attr string) {
	u.names["#"+attr] = attr
	u.removes = append(u.removes, "#"+attr)
}

func (u *update) setOrRemove(attr, v string) {
	if v == "" {
		u.remove(attr)
		return
	}
	u.set(attr, str(v))
}

func (u *update) setTime(attr string, t *time.Time) {
	if t == nil || t.IsZero() {
		u.remove(attr)
		return
	}
	u.set(attr, num(t.UnixMilli()))
}

func (u *update) setSegments(segments []db.PrintSegment) error {
	if len(segments) == 0 {
		u.remove("print_segments_json")
		return nil
	}
	b, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}
	u.set("print_segments_json", str(string(b)))
	return nil
}

func (u *update) expression() string {
	var parts []string
	if len(u.sets) > 0 {
		parts = append(parts, "SET "+strings.Join(u.sets, ", "))
	}
	if len(u.removes) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(u.removes, ", "))
	}
	return strings.Join(parts, " ")
}

func str(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func num(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func strList(vs []string) []types.AttributeValue {
	out := make([]types.AttributeValue, 0, len(vs))
	for _, v := range vs {
		out = append(out, str(v))
	}
	return out
}
