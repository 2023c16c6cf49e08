package store

import (
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/internal/model/entity"
)

func toAccount(result *entity.Account) *model.Account {

	if result == nil {
		return nil
	}

	account := &model.Account{
		Id:                result.Id,
		Name:              result.Name,
		Platform:          result.Platform,
		PoolGroup:         result.PoolGroup,
		Priority:          result.Priority,
		Weight:            result.Weight,
		IsEnabled:         result.IsEnabled,
		Status:            result.Status,
		RateLimitedUntil:  result.RateLimitedUntil,
		RateLimitDuration: result.RateLimitDuration,
		UsageCount:        result.UsageCount,
		LastUsedAt:        result.LastUsedAt,
		SupportedModels:   result.SupportedModels,
		ApiKey:            result.ApiKey,
		BaseUrl:           result.BaseUrl,
		ProxyUrl:          result.ProxyUrl,
	}

	if result.OAuth != nil {
		account.OAuth = &model.OAuthToken{
			AccessToken:  result.OAuth.AccessToken,
			RefreshToken: result.OAuth.RefreshToken,
			ExpiresAt:    result.OAuth.ExpiresAt,
			Scopes:       result.OAuth.Scopes,
		}
	}

	return account
}

func toApiKey(result *entity.ApiKey) *model.ApiKey {

	if result == nil {
		return nil
	}

	return &model.ApiKey{
		Id:                     result.Id,
		Name:                   result.Name,
		IsEnabled:              result.IsEnabled,
		Service:                result.Service,
		ClaudeAccountId:        result.ClaudeAccountId,
		ClaudeConsoleAccountId: result.ClaudeConsoleAccountId,
		GeminiAccountId:        result.GeminiAccountId,
		IsGroupManaged:         result.IsGroupManaged,
		GroupIds:               result.GroupIds,
		ExpiresAt:              result.ExpiresAt,
	}
}

func toGroup(result *entity.ApiKeyGroup) *model.ApiKeyGroup {

	if result == nil {
		return nil
	}

	group := &model.ApiKeyGroup{
		Id:               result.Id,
		Name:             result.Name,
		IsEnabled:        result.IsEnabled,
		LbStrategy:       model.ParseGroupStrategy(result.LbStrategy),
		FailoverStrategy: model.ParseFailoverStrategy(result.FailoverStrategy),
		HealthStatus:     result.HealthStatus,
		RoundRobinIndex:  result.RoundRobinIndex,
	}

	if result.Statistics != nil {
		group.Statistics = model.GroupStatistics{
			TotalRequests:      result.Statistics.TotalRequests,
			SuccessRequests:    result.Statistics.SuccessRequests,
			FailedRequests:     result.Statistics.FailedRequests,
			TotalResponseTime:  result.Statistics.TotalResponseTime,
			TotalCost:          result.Statistics.TotalCost,
			LastUsedAt:         result.Statistics.LastUsedAt,
			CurrentConnections: result.Statistics.CurrentConnections,
		}
	}

	return group
}

func toMapping(result *entity.ApiKeyGroupMapping) *model.ApiKeyGroupMapping {

	if result == nil {
		return nil
	}

	return &model.ApiKeyGroupMapping{
		Id:                  result.Id,
		GroupId:             result.GroupId,
		ApiKeyId:            result.ApiKeyId,
		Weight:              result.Weight,
		Priority:            result.Priority,
		IsPrimary:           result.IsPrimary,
		Order:               result.Order,
		HealthStatus:        result.HealthStatus,
		ConsecutiveFailures: result.ConsecutiveFailures,
		DisabledUntil:       result.DisabledUntil,
		TotalRequests:       result.TotalRequests,
		SuccessRequests:     result.SuccessRequests,
		FailedRequests:      result.FailedRequests,
		TotalResponseTime:   result.TotalResponseTime,
		CurrentConnections:  result.CurrentConnections,
		LastUsedAt:          result.LastUsedAt,
	}
}

func toPermission(result *entity.ApiKeyAccountPoolPermission) *model.ApiKeyAccountPoolPermission {

	if result == nil {
		return nil
	}

	return &model.ApiKeyAccountPoolPermission{
		Id:                result.Id,
		ApiKeyId:          result.ApiKeyId,
		PoolGroup:         result.PoolGroup,
		AllowedPlatforms:  result.AllowedPlatforms,
		AllowedAccountIds: result.AllowedAccountIds,
		SelectionStrategy: model.ParsePoolStrategy(result.SelectionStrategy),
		Priority:          result.Priority,
		IsEnabled:         result.IsEnabled,
		EffectiveFrom:     result.EffectiveFrom,
		EffectiveTo:       result.EffectiveTo,
	}
}
