package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/walleto-api/internal/domain"
)

// UserRepo is the identity directory backed by the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("user already exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByAddress looks a user up by normalized email.
func (r *UserRepo) FindByAddress(ctx context.Context, address string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEmail),
		KeyConditionExpression:    aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":e": strVal(domain.NormalizeAddress(address))},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateCredential(ctx context.Context, userID, passwordHash string) error {
	_, err := r.update(ctx, userID, map[string]interface{}{fieldPasswordHash: passwordHash})
	return err
}

func (r *UserRepo) LinkGoogle(ctx context.Context, userID, sub string) error {
	_, err := r.update(ctx, userID, map[string]interface{}{fieldGoogleSub: sub})
	return err
}

func (r *UserRepo) SetProfilePicture(ctx context.Context, userID, key string) error {
	_, err := r.update(ctx, userID, map[string]interface{}{fieldProfilePictureKey: key})
	return err
}

func (r *UserRepo) ClearProfilePicture(ctx context.Context, userID string) error {
	_, err := r.update(ctx, userID, map[string]interface{}{fieldProfilePictureKey: nil})
	return err
}

// UpdateProfile applies the non-nil fields of patch and returns the updated user.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error) {
	return r.update(ctx, userID, profileUpdates(patch))
}

func (r *UserRepo) update(ctx context.Context, userID string, updates map[string]interface{}) (*domain.User, error) {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Attributes, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func profileUpdates(p domain.ProfilePatch) map[string]interface{} {
	updates := map[string]interface{}{}
	setStr := func(field string, v *string) {
		if v != nil {
			updates[field] = *v
		}
	}
	setStr("first_name", p.FirstName)
	setStr("last_name", p.LastName)
	setStr("username", p.Username)
	setStr("nickname", p.Nickname)
	setStr("birthdate", p.Birthdate)
	setStr("secondary_email", p.SecondaryEmail)
	setStr("phone", p.Phone)
	setStr("street", p.Street)
	setStr("city", p.City)
	setStr("state", p.State)
	setStr("zip_code", p.ZipCode)
	setStr("country", p.Country)
	if p.OnboardingCompleted != nil {
		updates["onboarding_completed"] = *p.OnboardingCompleted
	}
	return updates
}
