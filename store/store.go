package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"
)

// Client is the subset of the DynamoDB API used by Store.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

const constraintSK = "CONSTRAINT"

// managedAttrs are never taken from caller supplied items on update.
var managedAttrs = map[string]bool{
	AttrID:         true,
	AttrVersion:    true,
	AttrCreated:    true,
	AttrUpdated:    true,
	AttrEntityRef:  true,
	AttrParentRef:  true,
	AttrTTL:        true,
	AttrUniqueKeys: true,
}

// Store provides DynamoDB operations for the service's entities.
type Store struct {
	client   Client
	config   Config
	registry *Registry
	now      func() time.Time
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// NewWithRegistry creates a new Store instance with a relationship registry.
func NewWithRegistry(client Client, config Config, registry *Registry) *Store {
	s := New(client, config)
	s.registry = registry
	return s
}

// Registry returns the relationship registry, or nil if not set.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Create writes a new entity. Foreign key checks, unique constraints, the
// entity put and the relationship record commit in one transaction.
func (s *Store) Create(ctx context.Context, entity Entity, item map[string]types.AttributeValue) error {
	now := s.now()
	nowISO := now.UTC().Format(time.RFC3339)

	var (
		tx        []types.TransactWriteItem
		refs      = make(map[int]ConditionCheck)
		parentRef string
	)

	if checker, ok := entity.(ParentChecker); ok {
		for _, check := range checker.ParentChecks() {
			refs[len(tx)] = check
			tx = append(tx, conditionCheckItem(check, now))
		}
		parentRef = checker.ParentRef()
	}

	item[AttrEntityRef] = stringAttr(entity.EntityRef())
	item[AttrVersion] = numberAttr(1)
	item[AttrCreated] = stringAttr(nowISO)
	item[AttrUpdated] = stringAttr(nowISO)
	if parentRef != "" {
		item[AttrParentRef] = stringAttr(parentRef)
	}

	if uf, ok := entity.(UniqueFielder); ok {
		scope := uniqueScope(parentRef, entity.EntityType())
		values := uf.UniqueFields()
		var keys []string
		for _, field := range slices.Sorted(maps.Keys(values)) {
			pk := uniqueConstraintPK(scope, entity.EntityType(), field, values[field])
			keys = append(keys, pk)
			tx = append(tx, s.uniquePut(pk, scope, entity, field, values[field]))
		}
		if len(keys) > 0 {
			list, err := attributevalue.MarshalList(keys)
			if err != nil {
				return fmt.Errorf("marshal unique keys: %w", err)
			}
			item[AttrUniqueKeys] = &types.AttributeValueMemberL{Value: list}
		}
	}

	putIndex := len(tx)
	tx = append(tx, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(entity.TableName()),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		},
	})

	if parentRef != "" {
		tx = append(tx, s.relationshipPut(entity, parentRef))
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx,
	})
	return mapTransactionError(err, refs, putIndex, ErrAlreadyExists)
}

// Get retrieves an entity by key, returning ErrNotFound if deleted or missing.
func (s *Store) Get(ctx context.Context, table string, key PK) (*Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil || IsDeleted(result.Item) {
		return nil, ErrNotFound
	}
	return unmarshalItem(result.Item), nil
}

// Query queries entities with automatic TTL filtering.
func (s *Store) Query(ctx context.Context, input QueryInput) ([]*Item, error) {
	filter, names, values := withTTLFilter(input.FilterExpression, input.ExpressionAttributeNames, input.ExpressionAttributeValues, s.now())

	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(input.TableName),
		KeyConditionExpression:    aws.String(input.KeyConditionExpression),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          input.ScanIndexForward,
	}
	if input.IndexName != "" {
		queryInput.IndexName = aws.String(input.IndexName)
	}
	if input.Limit > 0 {
		queryInput.Limit = aws.Int32(input.Limit)
	}

	var items []*Item
	paginator := dynamodb.NewQueryPaginator(s.client, queryInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			items = append(items, unmarshalItem(raw))
		}
	}
	return items, nil
}

// Scan reads a whole table, keeping live items matching the filter.
func (s *Store) Scan(ctx context.Context, input ScanInput) ([]*Item, error) {
	filter, names, values := withTTLFilter(input.FilterExpression, input.ExpressionAttributeNames, input.ExpressionAttributeValues, s.now())

	var items []*Item
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(input.TableName),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			items = append(items, unmarshalItem(raw))
		}
	}
	return items, nil
}

// Update writes the given attributes with optimistic locking. Foreign keys are
// re-checked, a changed owner moves the relationship record, and changed
// unique fields swap their constraint items, all in the same transaction.
// Attributes holding a NULL value are removed from the item.
func (s *Store) Update(ctx context.Context, entity Entity, item map[string]types.AttributeValue, expectedVersion int64) error {
	now := s.now()
	pc, hasParent := entity.(ParentChecker)
	uf, hasUnique := entity.(UniqueFielder)

	var parentRef string
	if hasParent {
		parentRef = pc.ParentRef()
	}

	var current *Item
	if hasUnique || parentRef != "" {
		cur, err := s.Get(ctx, entity.TableName(), entity.GetKey())
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return ErrConcurrentModification
		}
		current = cur
	}

	var (
		tx    []types.TransactWriteItem
		refs  = make(map[int]ConditionCheck)
		extra = make(map[string]types.AttributeValue)
	)

	if hasParent {
		for _, check := range pc.ParentChecks() {
			refs[len(tx)] = check
			tx = append(tx, conditionCheckItem(check, now))
		}
		if current != nil && parentRef != current.ParentRef {
			if current.ParentRef != "" {
				tx = append(tx, s.relationshipDelete(entity, current.ParentRef))
			}
			tx = append(tx, s.relationshipPut(entity, parentRef))
			extra[AttrParentRef] = stringAttr(parentRef)
		}
	}

	if hasUnique {
		uniqueItems, keys := s.uniqueChanges(entity, uf, current, parentRef)
		if len(uniqueItems) > 0 {
			tx = append(tx, uniqueItems...)
			list, err := attributevalue.MarshalList(keys)
			if err != nil {
				return fmt.Errorf("marshal unique keys: %w", err)
			}
			extra[AttrUniqueKeys] = &types.AttributeValueMemberL{Value: list}
		}
	}

	update := buildUpdate(entity, item, extra, expectedVersion, now)

	if len(tx) == 0 {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 update.TableName,
			Key:                       update.Key,
			UpdateExpression:          update.UpdateExpression,
			ConditionExpression:       update.ConditionExpression,
			ExpressionAttributeNames:  update.ExpressionAttributeNames,
			ExpressionAttributeValues: update.ExpressionAttributeValues,
		})
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return err
	}

	updateIndex := len(tx)
	tx = append(tx, types.TransactWriteItem{Update: update})

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx,
	})
	return mapTransactionError(err, refs, updateIndex, ErrConcurrentModification)
}

// uniqueChanges returns the delete/put pairs for unique values that differ
// from the stored item, plus the full list of constraint keys after the update.
func (s *Store) uniqueChanges(entity Entity, uf UniqueFielder, current *Item, parentRef string) ([]types.TransactWriteItem, []string) {
	entityType := entity.EntityType()
	scope := uniqueScope(parentRef, entityType)
	oldScope := uniqueScope(current.ParentRef, entityType)
	values := uf.UniqueFields()

	var (
		tx   []types.TransactWriteItem
		keys []string
	)
	for _, field := range slices.Sorted(maps.Keys(values)) {
		newValue := values[field]
		newPK := uniqueConstraintPK(scope, entityType, field, newValue)
		keys = append(keys, newPK)

		var oldValue string
		if v, ok := current.Raw[field].(*types.AttributeValueMemberS); ok {
			oldValue = v.Value
		}
		oldPK := uniqueConstraintPK(oldScope, entityType, field, oldValue)
		if oldValue != "" && oldPK == newPK {
			continue
		}
		if oldValue != "" {
			tx = append(tx, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(s.config.UniqueTable),
					Key: map[string]types.AttributeValue{
						"pk": stringAttr(oldPK),
						"sk": stringAttr(constraintSK),
					},
				},
			})
		}
		tx = append(tx, s.uniquePut(newPK, scope, entity, field, newValue))
	}
	if len(tx) == 0 {
		return nil, keys
	}
	return tx, keys
}

// buildUpdate turns an item into a versioned update against a live entity.
func buildUpdate(entity Entity, item, extra map[string]types.AttributeValue, expectedVersion int64, now time.Time) *types.Update {
	names := map[string]string{
		"#updated": AttrUpdated,
		"#version": AttrVersion,
		"#ttl":     AttrTTL,
	}
	values := map[string]types.AttributeValue{
		":updated":          stringAttr(now.UTC().Format(time.RFC3339)),
		":one":              numberAttr(1),
		":expected_version": numberAttr(expectedVersion),
	}

	var set, remove []string
	i := 0
	add := func(name string, value types.AttributeValue) {
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		names[nameKey] = name
		i++
		if _, isNull := value.(*types.AttributeValueMemberNULL); isNull {
			remove = append(remove, nameKey)
			return
		}
		values[valueKey] = value
		set = append(set, nameKey+" = "+valueKey)
	}
	for _, name := range slices.Sorted(maps.Keys(item)) {
		if managedAttrs[name] {
			continue
		}
		add(name, item[name])
	}
	for _, name := range slices.Sorted(maps.Keys(extra)) {
		add(name, extra[name])
	}
	set = append(set, "#updated = :updated", "#version = #version + :one")

	expr := "SET " + strings.Join(set, ", ")
	if len(remove) > 0 {
		expr += " REMOVE " + strings.Join(remove, ", ")
	}

	return &types.Update{
		TableName:                 aws.String(entity.TableName()),
		Key:                       entity.GetKey(),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("#version = :expected_version AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
}

// DeleteOptions configures delete behavior.
type DeleteOptions struct {
	// Cascade lets the stream handler propagate the TTL to children.
	Cascade bool

	// OrphanProtect fails the delete if active children exist.
	OrphanProtect bool
}

// Delete soft deletes an entity by setting its TTL.
func (s *Store) Delete(ctx context.Context, entity Entity, opts DeleteOptions) error {
	if opts.OrphanProtect && !opts.Cascade && s.registry.HasChildren(entity.EntityType()) {
		hasChildren, err := s.HasActiveChildren(ctx, entity.EntityRef())
		if err != nil {
			return err
		}
		if hasChildren {
			return ErrHasChildren
		}
	}
	return s.SetTTL(ctx, entity)
}

// SetTTL marks an entity for deletion by setting its TTL to now.
// The version bump makes in-flight updates fail their lock.
func (s *Store) SetTTL(ctx context.Context, entity Entity) error {
	return s.SetTTLByKey(ctx, entity.TableName(), entity.GetKey(), s.now().Unix())
}

// HasActiveChildren checks if an entity has any active (non-deleted) children.
func (s *Store) HasActiveChildren(ctx context.Context, entityRef string) (bool, error) {
	now := s.now()
	if s.config.NumShards == 1 {
		return s.shardHasActiveChildren(ctx, relationshipShardPK(entityRef, 0), now)
	}

	g, gctx := errgroup.WithContext(ctx)
	var found atomic.Bool
	for n := 0; n < s.config.NumShards; n++ {
		shardPK := relationshipShardPK(entityRef, n)
		g.Go(func() error {
			if found.Load() {
				return nil
			}
			ok, err := s.shardHasActiveChildren(gctx, shardPK, now)
			if err != nil {
				return fmt.Errorf("shard %s: %w", shardPK, err)
			}
			if ok {
				found.Store(true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return found.Load(), nil
}

// shardHasActiveChildren pages through one shard until a live child shows up.
// Limit is not used: DynamoDB applies it before the TTL filter.
func (s *Store) shardHasActiveChildren(ctx context.Context, shardPK string, now time.Time) (bool, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                aws.String(s.config.RelationshipTable),
		KeyConditionExpression:   aws.String("pk = :pk"),
		FilterExpression:         aws.String(TTLFilterExpr()),
		ExpressionAttributeNames: TTLFilterNames(),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":  stringAttr(shardPK),
			":now": numberAttr(now.Unix()),
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return false, err
		}
		if len(page.Items) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// QueryAllChildren returns all children of an entity, deleted ones included,
// so a cascade can be replayed safely.
func (s *Store) QueryAllChildren(ctx context.Context, parentRef string) ([]ChildRef, error) {
	if s.config.NumShards == 1 {
		return s.queryShardChildren(ctx, relationshipShardPK(parentRef, 0))
	}

	var (
		mu       sync.Mutex
		children []ChildRef
	)
	g, gctx := errgroup.WithContext(ctx)
	for n := 0; n < s.config.NumShards; n++ {
		shardPK := relationshipShardPK(parentRef, n)
		g.Go(func() error {
			shardChildren, err := s.queryShardChildren(gctx, shardPK)
			if err != nil {
				return fmt.Errorf("shard %s: %w", shardPK, err)
			}
			mu.Lock()
			children = append(children, shardChildren...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return children, nil
}

func (s *Store) queryShardChildren(ctx context.Context, shardPK string) ([]ChildRef, error) {
	var children []ChildRef
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.RelationshipTable),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": stringAttr(shardPK),
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			children = append(children, unmarshalChildRef(item, shardPK))
		}
	}
	return children, nil
}

// SetTTLByKey sets TTL on a live entity by table and key. An entity that is
// already deleted, or missing, is left untouched.
func (s *Store) SetTTLByKey(ctx context.Context, table string, key PK, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(table),
		Key:                 key,
		UpdateExpression:    aws.String("SET #ttl = :ttl, #version = #version + :one"),
		ConditionExpression: aws.String("attribute_exists(id) AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#ttl":     AttrTTL,
			"#version": AttrVersion,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": numberAttr(ttl),
			":one": numberAttr(1),
		},
	})
	return ignoreConditionFailure(err)
}

// SetRelationshipTTL sets TTL on a relationship record.
func (s *Store) SetRelationshipTTL(ctx context.Context, childRef, parentRef string, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.config.RelationshipTable),
		Key: map[string]types.AttributeValue{
			"pk":       stringAttr(relationshipPK(parentRef, childRef, s.config.NumShards)),
			"childRef": stringAttr(childRef),
		},
		UpdateExpression:         aws.String("SET #ttl = :ttl"),
		ConditionExpression:      aws.String("attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{"#ttl": AttrTTL},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": numberAttr(ttl),
		},
	})
	return ignoreConditionFailure(err)
}

// SetUniqueConstraintTTL sets TTL on a unique constraint record, freeing the value.
func (s *Store) SetUniqueConstraintTTL(ctx context.Context, pk string, ttl int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.config.UniqueTable),
		Key: map[string]types.AttributeValue{
			"pk": stringAttr(pk),
			"sk": stringAttr(constraintSK),
		},
		UpdateExpression:         aws.String("SET #ttl = :ttl"),
		ConditionExpression:      aws.String("attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{"#ttl": AttrTTL},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ttl": numberAttr(ttl),
		},
	})
	return ignoreConditionFailure(err)
}

func (s *Store) relationshipPut(entity Entity, parentRef string) types.TransactWriteItem {
	childRef := entity.EntityRef()
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.config.RelationshipTable),
			Item: map[string]types.AttributeValue{
				"pk":         stringAttr(relationshipPK(parentRef, childRef, s.config.NumShards)),
				"childRef":   stringAttr(childRef),
				"parentRef":  stringAttr(parentRef),
				"childTable": stringAttr(entity.TableName()),
				"childKey":   &types.AttributeValueMemberM{Value: entity.GetKey()},
			},
		},
	}
}

func (s *Store) relationshipDelete(entity Entity, parentRef string) types.TransactWriteItem {
	childRef := entity.EntityRef()
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(s.config.RelationshipTable),
			Key: map[string]types.AttributeValue{
				"pk":       stringAttr(relationshipPK(parentRef, childRef, s.config.NumShards)),
				"childRef": stringAttr(childRef),
			},
		},
	}
}

func (s *Store) uniquePut(pk, scope string, entity Entity, field, value string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.config.UniqueTable),
			Item: map[string]types.AttributeValue{
				"pk":         stringAttr(pk),
				"sk":         stringAttr(constraintSK),
				"scope":      stringAttr(scope),
				"entityType": stringAttr(entity.EntityType()),
				"fieldName":  stringAttr(field),
				"fieldValue": stringAttr(value),
				"entityRef":  stringAttr(entity.EntityRef()),
			},
			// A deleted owner frees the value once its TTL is set.
			ConditionExpression:      aws.String("attribute_not_exists(pk) OR #ttl <= :now"),
			ExpressionAttributeNames: TTLFilterNames(),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":now": numberAttr(s.now().Unix()),
			},
		},
	}
}

func conditionCheckItem(check ConditionCheck, now time.Time) types.TransactWriteItem {
	condExpr := check.ConditionExpr
	if condExpr == "" {
		condExpr = ParentExistsCondition()
	}
	return types.TransactWriteItem{
		ConditionCheck: &types.ConditionCheck{
			TableName:                 aws.String(check.TableName),
			Key:                       check.Key,
			ConditionExpression:       aws.String(condExpr),
			ExpressionAttributeNames:  TTLFilterNames(),
			ExpressionAttributeValues: TTLFilterValues(now),
		},
	}
}

// mapTransactionError translates a cancelled transaction into the store's
// errors. refs maps item indexes to the foreign key they check; targetIndex is
// the entity's own put or update, reported as targetErr.
func mapTransactionError(err error, refs map[int]ConditionCheck, targetIndex int, targetErr error) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if !errors.As(err, &txErr) {
		return err
	}
	for i, reason := range txErr.CancellationReasons {
		if aws.ToString(reason.Code) != "ConditionalCheckFailed" {
			continue
		}
		if check, ok := refs[i]; ok {
			return &ReferenceError{Entity: check.Entity, ID: check.ID}
		}
		if i == targetIndex {
			return targetErr
		}
		return ErrDuplicateValue
	}
	return err
}

func ignoreConditionFailure(err error) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}

// unmarshalItem converts a DynamoDB item to an Item struct.
func unmarshalItem(raw map[string]types.AttributeValue) *Item {
	item := &Item{Raw: raw}

	if v, ok := raw[AttrVersion].(*types.AttributeValueMemberN); ok {
		item.Version, _ = strconv.ParseInt(v.Value, 10, 64)
	}
	if v, ok := raw[AttrCreated].(*types.AttributeValueMemberS); ok {
		item.Created = v.Value
	}
	if v, ok := raw[AttrUpdated].(*types.AttributeValueMemberS); ok {
		item.Updated = v.Value
	}
	if v, ok := raw[AttrEntityRef].(*types.AttributeValueMemberS); ok {
		item.EntityRef = v.Value
	}
	if v, ok := raw[AttrParentRef].(*types.AttributeValueMemberS); ok {
		item.ParentRef = v.Value
	}
	return item
}

// unmarshalChildRef converts a relationship item to a ChildRef.
func unmarshalChildRef(item map[string]types.AttributeValue, shardPK string) ChildRef {
	ref := ChildRef{ShardPK: shardPK}

	if v, ok := item["childRef"].(*types.AttributeValueMemberS); ok {
		ref.Ref = v.Value
	}
	if v, ok := item["childTable"].(*types.AttributeValueMemberS); ok {
		ref.TableName = v.Value
	}
	if v, ok := item["childKey"].(*types.AttributeValueMemberM); ok {
		ref.Key = v.Value
	}
	return ref
}
